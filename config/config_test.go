package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

func intPtr(n int) *int { return &n }

func TestLoad_Defaults(t *testing.T) {
	// Create isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	// Load config from isolated viper
	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	// Check default values are applied
	if cfg.GetDatabasePath() != "domainmcp.db" {
		t.Errorf("expected default database path 'domainmcp.db', got %q", cfg.GetDatabasePath())
	}

	if cfg.GetServerPort() != DefaultServerPort {
		t.Errorf("expected default port %d, got %d", DefaultServerPort, cfg.GetServerPort())
	}

	if cfg.Cache.Backend != "memory" {
		t.Errorf("expected default cache backend 'memory', got %q", cfg.Cache.Backend)
	}

	if cfg.GetCacheTTL() != time.Hour {
		t.Errorf("expected default cache TTL 1h, got %v", cfg.GetCacheTTL())
	}

	if cfg.Registry.MaxConcurrent != 5 {
		t.Errorf("expected default max_concurrent 5, got %d", cfg.Registry.MaxConcurrent)
	}
}

func TestValidate_ZeroValues(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			config:  Config{},
			wantErr: false,
		},
		{
			name: "zero port is invalid (omit for default)",
			config: Config{
				Server: ServerConfig{Port: intPtr(0)},
			},
			wantErr: true,
		},
		{
			name: "negative port is invalid",
			config: Config{
				Server: ServerConfig{Port: intPtr(-1)},
			},
			wantErr: true,
		},
		{
			name: "zero max_domains is valid (use default)",
			config: Config{
				Registry: RegistryConfig{MaxDomains: 0},
			},
			wantErr: false,
		},
		{
			name: "negative max_domains is invalid",
			config: Config{
				Registry: RegistryConfig{MaxDomains: -1},
			},
			wantErr: true,
		},
		{
			name: "negative ttl is invalid",
			config: Config{
				Cache: CacheConfig{TTLSeconds: -1},
			},
			wantErr: true,
		},
		{
			name: "redis backend requires an address",
			config: Config{
				Cache: CacheConfig{Backend: "redis"},
			},
			wantErr: true,
		},
		{
			name: "redis backend with address is valid",
			config: Config{
				Cache: CacheConfig{Backend: "redis", RedisAddr: "localhost:6379"},
			},
			wantErr: false,
		},
		{
			name: "unknown backend is invalid",
			config: Config{
				Cache: CacheConfig{Backend: "memcached"},
			},
			wantErr: true,
		},
		{
			name: "negative snapshot interval is invalid",
			config: Config{
				Server: ServerConfig{SnapshotIntervalSeconds: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	// Verify critical defaults are set
	tests := []struct {
		key      string
		expected interface{}
	}{
		{"database.path", "domainmcp.db"},
		{"database.snapshot_keep", 100},
		{"server.port", DefaultServerPort},
		{"server.snapshot_interval_seconds", 300},
		{"registry.max_domains", 3},
		{"registry.max_concurrent", 5},
		{"cache.backend", "memory"},
		{"cache.ttl_seconds", 3600},
		{"cache.redis_addr", "localhost:6379"},
		{"monitor.window_size", 512},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := v.Get(tt.key)
			if got != tt.expected {
				t.Errorf("default %s = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestFindProjectConfig(t *testing.T) {
	// Create temporary directory structure
	tmpDir := t.TempDir()

	t.Run("found walking up", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test1", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)

		os.WriteFile(filepath.Join(tmpDir, "test1", "domainmcp.toml"), []byte(""), DefaultFilePermissions)

		// Change to subdirectory
		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result == "" {
			t.Error("expected to find config file")
		}
		if filepath.Base(result) != "domainmcp.toml" {
			t.Errorf("expected domainmcp.toml, got %s", filepath.Base(result))
		}
	})

	t.Run("no config found", func(t *testing.T) {
		subDir := filepath.Join(tmpDir, "test2", "subdir")
		os.MkdirAll(subDir, DefaultDirPermissions)

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		os.Chdir(subDir)

		result := findProjectConfig()
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "domainmcp.toml")
	content := `
[cache]
backend = "redis"
ttl_seconds = 120
redis_addr = "redis.internal:6379"

[registry]
max_domains = 7
`
	if err := os.WriteFile(path, []byte(content), DefaultFilePermissions); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Cache.Backend != "redis" {
		t.Errorf("expected backend redis, got %q", cfg.Cache.Backend)
	}
	if cfg.GetCacheTTL() != 2*time.Minute {
		t.Errorf("expected TTL 2m, got %v", cfg.GetCacheTTL())
	}
	if cfg.Registry.MaxDomains != 7 {
		t.Errorf("expected max_domains 7, got %d", cfg.Registry.MaxDomains)
	}

	// Defaults still fill the gaps
	if cfg.GetDatabasePath() != "domainmcp.db" {
		t.Errorf("expected default database path, got %q", cfg.GetDatabasePath())
	}
}

func TestSetKey(t *testing.T) {
	// Point the user config at a scratch home
	t.Setenv("HOME", t.TempDir())
	Reset()
	defer Reset()

	if err := SetKey("cache.ttl_seconds", 60); err != nil {
		t.Fatalf("SetKey() failed: %v", err)
	}

	configPath := GetUserConfigPath()
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("user config not written: %v", err)
	}

	var parsed map[string]interface{}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("user config not valid TOML: %v", err)
	}
	section, ok := parsed["cache"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected [cache] section, got %v", parsed)
	}
	if section["ttl_seconds"] != int64(60) {
		t.Errorf("expected ttl_seconds 60, got %v", section["ttl_seconds"])
	}

	// A second write rotates the previous file into .back1
	if err := SetKey("cache.ttl_seconds", 90); err != nil {
		t.Fatalf("SetKey() second write failed: %v", err)
	}
	if _, err := os.Stat(configPath + ".back1"); err != nil {
		t.Errorf("expected backup file after second write: %v", err)
	}

	// Rejects malformed keys
	if err := SetKey(".bad", 1); err == nil {
		t.Error("expected error for malformed key")
	}
}
