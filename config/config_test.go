package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/reqkit/httpclient"
)

type appConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Client        httpclient.Config `mapstructure:"client"`
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "reqkit.yml", `
name: demo
environment: staging
logging:
  level: warn
client:
  base_url: https://api.example.com
  timeout: 5s
  retry: 2
  retry_delay: 10ms
  blocked_codes: ["417", "timeout"]
  headers:
    X-Team: core
`)

	var cfg appConfig
	if err := Load("reqkit", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "demo" || cfg.Environment != "staging" || cfg.Logging.Level != "warn" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	c := cfg.Client
	if c.BaseURL != "https://api.example.com" || c.Timeout != 5*time.Second || c.Retry != 2 || c.RetryDelay != 10*time.Millisecond {
		t.Errorf("unexpected client config %+v", c)
	}
	if !slices.Equal(c.BlockedCodes, []string{"417", "timeout"}) {
		t.Errorf("unexpected blocked codes %v", c.BlockedCodes)
	}
	if c.Headers["x-team"] != "core" && c.Headers["X-Team"] != "core" {
		t.Errorf("unexpected headers %v", c.Headers)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "reqkit.yml", "client:\n  retry: 1\n")
	t.Setenv("REQKIT_CLIENT_RETRY", "4")
	t.Setenv("REQKIT_CLIENT_RETRY_DELAY", "250ms")
	t.Setenv("REQKIT_NAME", "from-env")

	var cfg appConfig
	if err := Load("reqkit", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Client.Retry != 4 {
		t.Errorf("expected env retry 4, got %d", cfg.Client.Retry)
	}
	if cfg.Client.RetryDelay != 250*time.Millisecond {
		t.Errorf("expected env delay 250ms, got %v", cfg.Client.RetryDelay)
	}
	if cfg.Name != "from-env" {
		t.Errorf("expected name from env, got %q", cfg.Name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	var cfg appConfig
	err := Load("reqkit", &cfg,
		WithFileSystem(&mockFS{}),
		WithDefaults(map[string]any{"client.retry": 3, "name": "fallback"}),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Client.Retry != 3 || cfg.Name != "fallback" {
		t.Errorf("expected defaults to apply, got retry=%d name=%q", cfg.Client.Retry, cfg.Name)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	var cfg appConfig
	err := Load("reqkit", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	fs := &mockFS{files: map[string]bool{".env": true}}
	var cfg appConfig
	if err := Load("reqkit", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !slices.Equal(fs.loaded, []string{".env"}) {
		t.Errorf("expected .env to be loaded, got %v", fs.loaded)
	}
}

func TestResolver(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("config", "reqkit.yml"): true,
		"config.yml":                          true,
		".env.reqkit":                         true,
		filepath.Join("/home/u", ".config", "x", "app.yml"): true,
	}}
	r := &Resolver{FileSystem: fs}

	files := r.ResolveFiles("reqkit", LoaderConfig{})
	if files.ConfigFile != filepath.Join("config", "reqkit.yml") {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != ".env.reqkit" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := r.ResolveFiles("reqkit", LoaderConfig{ConfigFile: "x.yml", EnvFile: "y.env"})
	if explicit.ConfigFile != "x.yml" || explicit.EnvFile != "y.env" {
		t.Errorf("explicit paths should win, got %+v", explicit)
	}

	home := &Resolver{FileSystem: fs, HomeDir: "/home/u"}
	if got := home.ResolveFiles("other", LoaderConfig{}).ConfigFile; got != "config.yml" {
		t.Errorf("expected local config.yml to win over home, got %q", got)
	}
}

func TestKeysOf(t *testing.T) {
	keys := keysOf(reflect.TypeOf(&appConfig{}), "")
	for _, want := range []string{"name", "environment", "logging.level", "client.retry", "client.retry_delay", "client.rate_limiter.rate", "client.blocked_codes"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected key %q in %v", want, keys)
		}
	}
	for _, unwanted := range []string{"client.headers", "client.interceptors", "client.auth", "client.retry_if"} {
		if slices.Contains(keys, unwanted) {
			t.Errorf("unexpected key %q", unwanted)
		}
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := ServiceConfig{Name: "demo"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := ServiceConfig{Name: "demo", Environment: "qa"}
	bad.Logging.ApplyDefaults()
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "environment") {
		t.Errorf("expected environment error, got %v", err)
	}

	unnamed := ServiceConfig{}
	unnamed.ApplyDefaults()
	if err := unnamed.Validate(); err == nil {
		t.Error("expected error for missing name")
	}
}
