package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const completionCacheTTL = 48 * time.Hour

// CompletionCacheRepository 缓存"某用户某天已完成的行动"。
// 完成不可撤销，缓存只写入已提交的事实，因此不会过期失真。Redis 为 nil 时所有操作为空操作。
type CompletionCacheRepository struct {
	Redis *redis.Client
}

func NewCompletionCacheRepository(rdb *redis.Client) *CompletionCacheRepository {
	return &CompletionCacheRepository{Redis: rdb}
}

func completionKey(userID uint, day string) string {
	return fmt.Sprintf("progression:daily:%d:%s", userID, day)
}

// Get 返回缓存的行动ID，未命中时 ok 为 false
func (r *CompletionCacheRepository) Get(ctx context.Context, userID uint, day string) (uint, bool) {
	if r == nil || r.Redis == nil {
		return 0, false
	}
	val, err := r.Redis.Get(ctx, completionKey(userID, day)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Set 在完成事务提交后写入
func (r *CompletionCacheRepository) Set(ctx context.Context, userID uint, day string, actionID uint) error {
	if r == nil || r.Redis == nil {
		return nil
	}
	return r.Redis.Set(ctx, completionKey(userID, day), strconv.FormatUint(uint64(actionID), 10), completionCacheTTL).Err()
}
