// Package cache provides the shop settings caches: an in-process TTL map
// and a Redis-backed store shared by every replica.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	pkgcache "github.com/fekuna/omnipos-stock-sync/pkg/cache"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type entry struct {
	shop      model.Shop
	expiresAt time.Time
}

// Memory is an in-process cache with an injectable clock.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{ttl: ttl, now: now, entries: make(map[string]entry)}
}

func (m *Memory) Get(_ context.Context, domain string) (*model.Shop, bool) {
	m.mu.RLock()
	e, ok := m.entries[domain]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false
	}
	s := e.shop
	return &s, true
}

func (m *Memory) Put(_ context.Context, shop *model.Shop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[shop.Domain] = entry{shop: *shop, expiresAt: m.now().Add(m.ttl)}
}

func (m *Memory) Invalidate(_ context.Context, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, domain)
}

// Redis stores shops as JSON under "shop:settings:<domain>".
type Redis struct {
	client *pkgcache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedis(client *pkgcache.RedisClient, ttl time.Duration, log logger.ZapLogger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: log}
}

func settingsKey(domain string) string {
	return "shop:settings:" + domain
}

func (r *Redis) Get(ctx context.Context, domain string) (*model.Shop, bool) {
	val, err := r.client.Client.Get(ctx, settingsKey(domain)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("shop settings cache read failed", zap.String("shop", domain), zap.Error(err))
		}
		return nil, false
	}

	var s model.Shop
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		r.logger.Warn("shop settings cache entry corrupt", zap.String("shop", domain), zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (r *Redis) Put(ctx context.Context, shop *model.Shop) {
	data, err := json.Marshal(shop)
	if err != nil {
		return
	}
	if err := r.client.Client.Set(ctx, settingsKey(shop.Domain), data, r.ttl).Err(); err != nil {
		r.logger.Warn("shop settings cache write failed", zap.String("shop", shop.Domain), zap.Error(err))
	}
}

func (r *Redis) Invalidate(ctx context.Context, domain string) {
	if err := r.client.Client.Del(ctx, settingsKey(domain)).Err(); err != nil {
		r.logger.Warn("shop settings cache invalidate failed", zap.String("shop", domain), zap.Error(err))
	}
}
