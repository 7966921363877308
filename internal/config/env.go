package config

import (
	"fmt"
	"strconv"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from KINTREE_* variables.
//
//	KINTREE_LOG_LEVEL         log_level
//	KINTREE_SERVER_ADDR       server.addr
//	KINTREE_SERVER_TIMEOUT    server.read_timeout and server.write_timeout
//	KINTREE_CACHE_BACKEND     cache.backend
//	KINTREE_CACHE_DIR         cache.dir
//	KINTREE_REDIS_ADDR        cache.redis_addr
//	KINTREE_REDIS_PASSWORD    cache.redis_password
//	KINTREE_REDIS_DB          cache.redis_db
//	KINTREE_STORE_BACKEND     store.backend
//	KINTREE_MONGO_URI         store.mongo_uri
//	KINTREE_MONGO_DATABASE    store.database
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"KINTREE_LOG_LEVEL", &c.LogLevel},
		{"KINTREE_SERVER_ADDR", &c.Server.Addr},
		{"KINTREE_CACHE_BACKEND", &c.Cache.Backend},
		{"KINTREE_CACHE_DIR", &c.Cache.Dir},
		{"KINTREE_REDIS_ADDR", &c.Cache.RedisAddr},
		{"KINTREE_REDIS_PASSWORD", &c.Cache.RedisPassword},
		{"KINTREE_STORE_BACKEND", &c.Store.Backend},
		{"KINTREE_MONGO_URI", &c.Store.MongoURI},
		{"KINTREE_MONGO_DATABASE", &c.Store.Database},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup("KINTREE_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KINTREE_REDIS_DB: %w", err)
		}
		c.Cache.RedisDB = n
	}
	if v, ok := lookup("KINTREE_SERVER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KINTREE_SERVER_TIMEOUT: %w", err)
		}
		c.Server.ReadTimeout = Duration{d}
		c.Server.WriteTimeout = Duration{d}
	}
	return nil
}
