package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"grading_center_backend/internal/config"

	"github.com/go-redis/redis/v8"
)

// InitRedis 列表页缓存与仲裁事件广播共用一个客户端。
// 缓存读写都在请求路径上，超时必须短，宁可穿透到库也别拖住评分接口
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     50,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Redis connection established")
	return rdb, nil
}
