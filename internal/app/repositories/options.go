package repositories

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"stampy-lens/internal/pkg/storage"
)

const optionsKeyPrefix = "stampy:options:"

var ErrNotFound = errors.New("option not found")

// OptionsRepository 插件选项的键值存储
type OptionsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetIfAbsent 键不存在时写入 value，返回最终保存的值
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// NewOptionsRepository 有 redis 连接时使用 redis，否则退化为内存存储
func NewOptionsRepository() OptionsRepository {
	if storage.RDB != nil {
		return NewRedisOptionsRepository(storage.RDB)
	}
	return NewMemoryOptionsRepository()
}

type RedisOptionsRepository struct {
	rdb *redis.Client
}

func NewRedisOptionsRepository(rdb *redis.Client) *RedisOptionsRepository {
	return &RedisOptionsRepository{rdb: rdb}
}

// Get 获取选项值，不存在时返回 ErrNotFound
func (r *RedisOptionsRepository) Get(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, optionsKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set 保存选项值，不过期
func (r *RedisOptionsRepository) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, optionsKeyPrefix+key, value, 0).Err()
}

func (r *RedisOptionsRepository) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	ok, err := r.rdb.SetNX(ctx, optionsKeyPrefix+key, value, 0).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return value, nil
	}
	return r.Get(ctx, key)
}

type MemoryOptionsRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryOptionsRepository() *MemoryOptionsRepository {
	return &MemoryOptionsRepository{values: make(map[string]string)}
}

func (r *MemoryOptionsRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (r *MemoryOptionsRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *MemoryOptionsRepository) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.values[key]; ok {
		return existing, nil
	}
	r.values[key] = value
	return value, nil
}
