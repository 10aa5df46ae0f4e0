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

package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter bounds planning requests per client using a Redis sliding
// window. Redis being down never blocks planning: every limiter error fails
// open and allows the request.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// key. A nil Redis client disables limiting entirely.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow reports whether the key may proceed, recording the request when it
// may. The sliding window is a sorted set of request timestamps trimmed on
// every call.
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	if r.client == nil {
		return true
	}

	now := r.now()
	windowStart := now.Add(-r.window)
	redisKey := "tripflow:ratelimit:" + key

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, &redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, redisKey, r.window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[RateLimiter] redis unavailable, failing open: %v", err)
		return true
	}

	return countCmd.Val() < int64(r.limit)
}
