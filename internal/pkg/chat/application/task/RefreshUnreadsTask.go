package task

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	cacheport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/port"
	qport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/queue/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/usecase"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/rs/zerolog"
)

// RefreshUnreadsTaskType is the queue task name for recomputing a user's
// cached unread-badge total.
const RefreshUnreadsTaskType = "chat:refresh_unreads"

// RefreshUnreadsPayload is the JSON payload transported via the queue.
type RefreshUnreadsPayload struct {
	UserID string `json:"userId"`
}

// RegisterRefreshUnreadsTask binds the handler: recompute the user's total
// from the store and rewrite the cache entry. Idempotent by construction.
func RegisterRefreshUnreadsTask(srv qport.Server, store repository.ChatStore, cache cacheport.Cache) {
	srv.Register(RefreshUnreadsTaskType, func(ctx context.Context, t qport.Task) error {
		var p RefreshUnreadsPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return nil
		}
		if p.UserID == "" {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		total, err := store.TotalUnreads(ctx, p.UserID)
		if err != nil {
			return err
		}
		return cache.Set(ctx, usecase.UnreadsCacheKey(p.UserID), strconv.Itoa(total), usecase.UnreadsCacheTTL)
	})
}

// UnreadsRefresher keeps the cached badge totals in step with sends and read
// marks: the stale entry is dropped synchronously so the next lookup
// recomputes from the store, and a background task re-warms the cache. A nil
// refresher (no Redis configured) is a no-op.
type UnreadsRefresher struct {
	Q      qport.Client
	Cache  cacheport.Cache
	Logger zerolog.Logger
}

// Enqueue invalidates each user's cached total and schedules a recompute,
// best-effort. Delivery failures are logged and swallowed; unread counts are
// always recomputable from the store.
func (r *UnreadsRefresher) Enqueue(ctx context.Context, userIDs ...string) {
	if r == nil {
		return
	}
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}

		// Invalidate first: a cursor or message change already happened, so
		// the cached total is stale the moment we get here.
		if r.Cache != nil {
			if _, err := r.Cache.Del(ctx, usecase.UnreadsCacheKey(userID)); err != nil {
				r.Logger.Warn().Str("user_id", userID).Err(err).Msg("failed to invalidate unreads cache")
			}
		}

		if r.Q == nil {
			continue
		}
		payload, err := json.Marshal(RefreshUnreadsPayload{UserID: userID})
		if err != nil {
			continue
		}
		_, err = r.Q.Enqueue(ctx, qport.Task{Type: RefreshUnreadsTaskType, Payload: payload}, qport.EnqueueOption{
			Queue:     "chat",
			MaxRetry:  3,
			UniqueTTL: time.Second,
		})
		if err != nil {
			r.Logger.Warn().Str("user_id", userID).Err(err).Msg("failed to enqueue unreads refresh")
		}
	}
}
