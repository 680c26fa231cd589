package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grading_center_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const answerListTTL = 30 * time.Second

// AnswerCache 按考试维度缓存答案列表页。任何答案变更都让该考试的
// 全部列表页失效。nil 缓存（单测、无 Redis 部署）所有方法都是空操作
type AnswerCache struct {
	rdb *redis.Client
}

func NewAnswerCache(rdb *redis.Client) *AnswerCache {
	return &AnswerCache{rdb: rdb}
}

func listKey(examID uint, status string, page, size int) string {
	return fmt.Sprintf("grading:answers:%d:%s:%d:%d", examID, status, page, size)
}

func (c *AnswerCache) Get(examID uint, status string, page, size int, out interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(context.Background(), listKey(examID, status, page, size)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, out) == nil
}

func (c *AnswerCache) Set(examID uint, status string, page, size int, v interface{}) {
	if c == nil || c.rdb == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(context.Background(), listKey(examID, status, page, size), payload, answerListTTL)
}

// Invalidate 删除某场考试的所有列表页缓存
func (c *AnswerCache) Invalidate(examID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	ctx := context.Background()
	pattern := fmt.Sprintf("grading:answers:%d:*", examID)
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		logger.Log.Error("cache invalidation failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
}
