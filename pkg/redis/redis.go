package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/config"
)

// Client Redis 客户端封装
// 当前用于教学班列表缓存与选课高峰限流；调用方持 nil Client 时应降级直连
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// 教学班列表缓存命名空间与 TTL
const (
	SectionListNamespace = "sections:list"
	SectionListTTL       = 30 * time.Second
)

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
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── JSON 缓存 ──

// GetJSON 读取缓存并反序列化到 dest；未命中返回 (false, nil)
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 序列化并写入缓存
func (c *Client) SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// ── 命名空间版本失效 ──
//
// 缓存键带命名空间版本号；写操作自增版本即可让整个命名空间失效，
// 无需 SCAN 逐键删除。

// Namespace 读取命名空间当前版本（键不存在视为 0）
func (c *Client) Namespace(ctx context.Context, name string) (int64, error) {
	ver, err := c.rdb.Get(ctx, name+":ver").Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return ver, nil
}

// BumpNamespace 自增命名空间版本，使其下所有缓存键失效
func (c *Client) BumpNamespace(ctx context.Context, name string) error {
	return c.rdb.Incr(ctx, name+":ver").Err()
}

// ── 限流 ──

// CheckRateLimit 固定窗口限流：窗口内计数超过 limit 时返回 false
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
