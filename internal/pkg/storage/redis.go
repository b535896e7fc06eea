package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"stampy-lens/pkg/config"
)

var RDB *redis.Client

// InitRedis 连接 redis；未配置地址时不连接，选项保存在内存中
func InitRedis() error {
	if RDB != nil {
		return nil
	}
	conf := config.GetRedisConf()
	if conf.Addr == "" {
		log.Info("redis addr not configured, options kept in memory")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Errorf("redis connect fail:%s", err.Error())
		return fmt.Errorf("connect redis %s: %w", conf.Addr, err)
	}
	RDB = client
	log.Info("redis connection success")
	return nil
}

func CloseRedis() {
	if RDB == nil {
		return
	}
	if err := RDB.Close(); err != nil {
		log.Warnf("redis close fail:%s", err.Error())
	}
	RDB = nil
}
