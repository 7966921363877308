package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/store/memory"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Layout != layout.DefaultOptions() {
		t.Errorf("Layout = %+v", c.Layout)
	}
	if c.Server.Addr != ":8080" || c.Cache.Backend != CacheFile || c.Store.Backend != StoreMemory {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Level() != log.InfoLevel {
		t.Errorf("Level = %v", c.Level())
	}
}

func TestParse(t *testing.T) {
	c, err := Parse(`
log_level = "debug"

[layout]
sibling_gutter = 300

[viewport]
default_scale = 1.0
double_tap_zoom = true

[server]
addr = ":9000"
read_timeout = "5s"

[cache]
backend = "none"
`)
	if err != nil {
		t.Fatal(err)
	}
	if c.Layout.SiblingGutter != 300 || c.Layout.LevelGutter != layout.DefaultLevelGutter {
		t.Errorf("Layout = %+v", c.Layout)
	}
	if c.Viewport.DefaultScale != 1 || !c.Viewport.DoubleTapZoom {
		t.Errorf("Viewport = %+v", c.Viewport)
	}
	if c.Server.Addr != ":9000" || c.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("Server = %+v", c.Server)
	}
	if c.Server.WriteTimeout.Duration != 60*time.Second {
		t.Errorf("WriteTimeout lost its default: %v", c.Server.WriteTimeout)
	}
	if c.Level() != log.DebugLevel {
		t.Errorf("Level = %v", c.Level())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"cache backend", `[cache]` + "\n" + `backend = "memcached"`, "cache backend"},
		{"store backend", `[store]` + "\n" + `backend = "sqlite"`, "store backend"},
		{"redis addr", `[cache]` + "\n" + `backend = "redis"`, "redis_addr"},
		{"mongo uri", `[store]` + "\n" + `backend = "mongo"`, "mongo_uri"},
		{"scale range", `[viewport]` + "\n" + "min_scale = 3.0\nmax_scale = 1.0", "min scale"},
		{"log level", `log_level = "loud"`, "level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	err := c.ApplyEnv(envMap(map[string]string{
		"KINTREE_SERVER_ADDR":    ":7000",
		"KINTREE_CACHE_BACKEND":  "redis",
		"KINTREE_REDIS_ADDR":     "localhost:6379",
		"KINTREE_REDIS_DB":       "2",
		"KINTREE_SERVER_TIMEOUT": "30s",
		"KINTREE_STORE_BACKEND":  "",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":7000" || c.Cache.Backend != CacheRedis || c.Cache.RedisDB != 2 {
		t.Errorf("env not applied: %+v", c)
	}
	if c.Server.ReadTimeout.Duration != 30*time.Second {
		t.Errorf("ReadTimeout = %v", c.Server.ReadTimeout)
	}
	if c.Store.Backend != StoreMemory {
		t.Errorf("empty variable overrode store backend: %q", c.Store.Backend)
	}

	if err := Default().ApplyEnv(envMap(map[string]string{"KINTREE_REDIS_DB": "two"})); err == nil {
		t.Error("expected error for non-numeric KINTREE_REDIS_DB")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("KINTREE_SERVER_ADDR", "")

	// No file at the default location.
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", c.Server.Addr)
	}

	path := filepath.Join(dir, "kintree", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9999\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9999" {
		t.Errorf("Addr = %q, want :9999", c.Server.Addr)
	}

	t.Setenv("KINTREE_SERVER_ADDR", ":1234")
	c, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":1234" {
		t.Errorf("env did not override file: %q", c.Server.Addr)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("explicit missing file should fail")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[server]\nport = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Errorf("unknown key error = %v", err)
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	c := Default()
	c.Cache.Dir = t.TempDir()

	cc, err := c.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.FileCache); !ok {
		t.Errorf("OpenCache = %T, want *cache.FileCache", cc)
	}

	c.Cache.Backend = CacheNone
	cc, err = c.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.NullCache); !ok {
		t.Errorf("OpenCache = %T, want *cache.NullCache", cc)
	}

	s, err := c.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("OpenStore = %T, want *memory.Store", s)
	}
}
