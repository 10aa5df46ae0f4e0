// Copyright 2025 TripFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package extract converts messy generated text into structured trip data.
//
// The engine never assumes clean input. Every pass strips code fences,
// sanitizes active or non-structural markup, and then walks an ordered
// strategy chain per schema: strict field patterns first, a loose miner
// second, and (for schemas that allow it) synthetic placeholders last.
// Extraction is deterministic and idempotent; errors are reserved for
// fundamentally unusable input, not for low-quality text.
package extract
