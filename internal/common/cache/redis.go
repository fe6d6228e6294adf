// Package cache 提供 Redis 缓存功能
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
)

var rdb *redis.Client

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	rdb = client
	return rdb, nil
}

// GetClient 获取 Redis 客户端，未启用时为 nil
func GetClient() *redis.Client {
	return rdb
}

// Close 关闭 Redis 连接
func Close() error {
	if rdb != nil {
		err := rdb.Close()
		rdb = nil
		return err
	}
	return nil
}

// 缓存键前缀
const (
	KeyPrefixSetting = "setting:"
)

// KeySettingAll 业务配置全量缓存键
const KeySettingAll = KeyPrefixSetting + "all"

// BuildKey 构建缓存键
func BuildKey(prefix string, parts ...string) string {
	return strings.TrimSuffix(prefix, ":") + ":" + strings.Join(parts, ":")
}

// IsMiss 判断是否为缓存未命中
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// JSONCache 以 JSON 编码读写值的缓存
type JSONCache struct {
	client *redis.Client
}

// NewJSONCache 创建 JSON 缓存，client 为 nil 时所有操作都是空操作
func NewJSONCache(client *redis.Client) *JSONCache {
	return &JSONCache{client: client}
}

// Enabled 是否可用
func (c *JSONCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Set 设置缓存
func (c *JSONCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，未命中时返回 false 且不报错
func (c *JSONCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return true, nil
}

// Delete 删除缓存
func (c *JSONCache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Ping 检查连接
func (c *JSONCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}
