package cache

import (
	"context"
	"fmt"
	"time"

	"coursepay/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// 終端ステータスのキャッシュ（Redis）
type RedisStatusCache struct {
	client      *redis.Client
	serviceName string
	ttl         time.Duration
}

func NewRedisStatusCache(client *redis.Client, serviceName string, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{client: client, serviceName: serviceName, ttl: ttl}
}

func (r *RedisStatusCache) key(orderNumber string) string {
	return fmt.Sprintf("%s:order-status:%s", r.serviceName, orderNumber)
}

func (r *RedisStatusCache) GetTerminal(ctx context.Context, orderNumber string) (model.OrderStatus, bool, error) {
	v, err := r.client.Get(ctx, r.key(orderNumber)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	status := model.OrderStatus(v)
	if !status.IsTerminal() {
		return "", false, nil
	}
	return status, true, nil
}

// 終端以外は入れない
func (r *RedisStatusCache) PutTerminal(ctx context.Context, orderNumber string, status model.OrderStatus) error {
	if !status.IsTerminal() {
		return nil
	}
	return r.client.Set(ctx, r.key(orderNumber), string(status), r.ttl).Err()
}

// REDIS_ADDRが無いとき用
type NopStatusCache struct{}

func (NopStatusCache) GetTerminal(ctx context.Context, orderNumber string) (model.OrderStatus, bool, error) {
	return "", false, nil
}

func (NopStatusCache) PutTerminal(ctx context.Context, orderNumber string, status model.OrderStatus) error {
	return nil
}
