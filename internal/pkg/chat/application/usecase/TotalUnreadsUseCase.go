package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	cacheport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/port"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
)

// UnreadsCacheTTL bounds staleness of the cached badge count; the background
// refresh task rewrites the entry on every send/read anyway.
const UnreadsCacheTTL = 30 * time.Second

// UnreadsCacheKey returns the cache key for a user's total unread count.
func UnreadsCacheKey(userID string) string {
	return "chat:unreads:" + userID
}

// TotalUnreadsUseCase computes the cross-room unread badge count. When a
// cache is configured it is consulted first; the store remains the source of
// truth and a miss falls through to direct computation.
type TotalUnreadsUseCase struct {
	Repo  repository.ChatStore
	Cache cacheport.Cache // optional; nil disables caching
}

func NewTotalUnreadsUseCase(repo repository.ChatStore, cache cacheport.Cache) *TotalUnreadsUseCase {
	return &TotalUnreadsUseCase{Repo: repo, Cache: cache}
}

func (uc *TotalUnreadsUseCase) Execute(ctx context.Context, userID string) (int, error) {
	// Cache trouble is never a reason to fail the request; misses and
	// transport errors alike fall through to the store.
	if uc.Cache != nil {
		if v, err := uc.Cache.Get(ctx, UnreadsCacheKey(userID)); err == nil {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				return n, nil
			}
		}
	}

	total, err := uc.Repo.TotalUnreads(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		_ = uc.Cache.Set(ctx, UnreadsCacheKey(userID), strconv.Itoa(total), UnreadsCacheTTL)
	}
	return total, nil
}
