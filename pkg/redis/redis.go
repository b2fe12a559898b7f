package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ta-assign/backend/config"
)

var (
	// ErrLockHeld 分配运行锁已被其他请求持有
	ErrLockHeld = errors.New("已有分配任务正在运行")
	// ErrCacheMiss 缓存不存在
	ErrCacheMiss = errors.New("缓存不存在")
)

// Client Redis 客户端封装
// 用于 Token 黑名单、接口限流、分配运行锁与最近一次分配结果缓存
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 在 window 内最多允许 limit 次请求，返回本次是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	minScore := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", minScore)
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

// ── 分配运行锁 ──

const runLockKey = "assignment:run:lock"

// 仅当锁仍由自己持有时才删除
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireRunLock 获取分配运行锁，成功时返回释放用的令牌
func (c *Client) AcquireRunLock(ctx context.Context, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, runLockKey, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// ReleaseRunLock 释放分配运行锁；令牌不匹配（锁已过期被他人获取）时不做任何事
func (c *Client) ReleaseRunLock(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, c.rdb, []string{runLockKey}, token).Err()
}

// ── 分配结果缓存 ──

const resultCacheKey = "assignment:result:latest"

// CacheResult 缓存最近一次已保存的分配结果（JSON）
func (c *Client) CacheResult(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, resultCacheKey, payload, ttl).Err()
}

// GetCachedResult 读取缓存的分配结果，不存在时返回 ErrCacheMiss
func (c *Client) GetCachedResult(ctx context.Context) ([]byte, error) {
	b, err := c.rdb.Get(ctx, resultCacheKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

// InvalidateResult 清除分配结果缓存
func (c *Client) InvalidateResult(ctx context.Context) error {
	return c.rdb.Del(ctx, resultCacheKey).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
