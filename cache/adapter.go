package cache

import (
	"context"
	"time"

	"github.com/nocturne-works/dataport/cache/local"
	cacheredis "github.com/nocturne-works/dataport/cache/redis"
	"github.com/nocturne-works/dataport/config"
)

// Cache is the KV surface used for hot reference-data reads (shop listings,
// quest lists). Entries are serialized JSON; a miss is signalled by the
// backend's ErrNotFound.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// New returns a Cache backed by Redis if RedisAddr is set, otherwise an
// in-process LocalCache.
func New(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.NewCache(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return local.NewCache(local.Config{
		GCInterval: cfg.LocalGCInterval,
	})
}

// IsNotFound reports whether err signals a cache miss.
func IsNotFound(err error) bool {
	return err == local.ErrNotFound || err == cacheredis.ErrNotFound
}
