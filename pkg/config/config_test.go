package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testDefaults(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return defaults(dir, filepath.Join(dir, ".config", AppName))
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(filepath.Join(dir, "absent.toml"), filepath.Join(dir, "absent-local.toml"), testDefaults(t))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.SaveMode != "full" {
		t.Errorf("SaveMode = %q, want %q", cfg.SaveMode, "full")
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, CacheBackendFile)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
	}
}

func TestLoadLocalOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	local := filepath.Join(dir, "local.toml")
	write(t, global, "save_mode = \"minimal\"\ndestination = \"/from/global\"\n")
	write(t, local, "destination = \"/from/local\"\n")

	cfg, err := load(global, local, testDefaults(t))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Destination != "/from/local" {
		t.Errorf("Destination = %q, want the local override", cfg.Destination)
	}
	if cfg.SaveMode != "minimal" {
		t.Errorf("SaveMode = %q, want the global value to survive the merge", cfg.SaveMode)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	write(t, global, "save_mode = \"minimal\"\n")
	t.Setenv("PACKRAFT_SAVE_MODE", "none")

	cfg, err := load(global, filepath.Join(dir, "absent.toml"), testDefaults(t))
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.SaveMode != "none" {
		t.Errorf("SaveMode = %q, want the environment override", cfg.SaveMode)
	}
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	write(t, global, "[cache]\nbackend = \"memcached\"\n")

	if _, err := load(global, filepath.Join(dir, "absent.toml"), testDefaults(t)); err == nil {
		t.Error("load() accepted an unknown cache backend, want error")
	}
}

func TestLoadMalformedGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "config.toml")
	write(t, global, "this is not toml = = =")

	if _, err := load(global, filepath.Join(dir, "absent.toml"), testDefaults(t)); err == nil {
		t.Error("load() accepted a malformed config file, want error")
	}
}
