package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points every XDG dir at a temp directory and clears the PUTZ_*
// overrides.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir+"/config")
	t.Setenv("XDG_DATA_HOME", tmpDir+"/data")
	t.Setenv("XDG_CACHE_HOME", tmpDir+"/cache")
	t.Setenv("XDG_STATE_HOME", tmpDir+"/state")
	for _, k := range []string{"PUTZ_NOTIFY_ENDPOINT", "PUTZ_HOUSEHOLD", "PUTZ_USER", "PUTZ_LOG_LEVEL", "PUTZ_LOG_FORMAT", "PUTZ_DEFAULT_TARGET"} {
		t.Setenv(k, "")
	}
	return tmpDir
}

func TestGetPaths(t *testing.T) {
	paths := GetPaths()

	if paths.ConfigDir == "" {
		t.Fatal("ConfigDir should not be empty")
	}
	if paths.DataDir == "" {
		t.Fatal("DataDir should not be empty")
	}
	if paths.ConfigFile == "" {
		t.Fatal("ConfigFile should not be empty")
	}
	if paths.DBFile == "" {
		t.Fatal("DBFile should not be empty")
	}
}

func TestGetPathsRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/testxdg/config")
	t.Setenv("XDG_DATA_HOME", "/tmp/testxdg/data")

	paths := GetPaths()

	if paths.ConfigDir != "/tmp/testxdg/config/putz" {
		t.Fatalf("expected /tmp/testxdg/config/putz, got %s", paths.ConfigDir)
	}
	if paths.DataDir != "/tmp/testxdg/data/putz" {
		t.Fatalf("expected /tmp/testxdg/data/putz, got %s", paths.DataDir)
	}
	if paths.EnvFile != "/tmp/testxdg/config/putz/.env" {
		t.Fatalf("unexpected EnvFile %s", paths.EnvFile)
	}
	if paths.DBFile != "/tmp/testxdg/data/putz/putz.db" {
		t.Fatalf("unexpected DBFile %s", paths.DBFile)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Period.DefaultTargetPoints != DefaultTargetPoints {
		t.Fatalf("expected default target %d, got %d", DefaultTargetPoints, cfg.Period.DefaultTargetPoints)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Notify.IsEnabled() {
		t.Fatal("notifications should be off without an endpoint")
	}
}

func TestEnsureDirs(t *testing.T) {
	isolate(t)

	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	for _, dir := range []string{paths.ConfigDir, paths.DataDir, paths.CacheDir, paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("dir %s not created: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", dir)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)
	if Initialized() {
		t.Fatal("fresh dir should not be initialized")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Period.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected timezone %q", cfg.Period.Timezone)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	body := "[period]\ndefault_target_points = 40\nreset_on_new = true\n\n[notify]\nendpoint = \"http://relay\"\n"
	if err := os.WriteFile(paths.ConfigFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Period.DefaultTargetPoints != 40 || !cfg.Period.ResetOnNew {
		t.Fatalf("file values not applied: %+v", cfg.Period)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("defaults lost for unset keys: %+v", cfg.Log)
	}
	if !cfg.Notify.IsEnabled() {
		t.Fatal("endpoint should enable notifications")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	isolate(t)
	paths := GetPaths()
	paths.EnsureDirs()
	os.WriteFile(paths.ConfigFile, []byte("[period\n"), 0o644)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PUTZ_HOUSEHOLD", "wg9")
	t.Setenv("PUTZ_DEFAULT_TARGET", "77")
	t.Setenv("PUTZ_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Household.Default != "wg9" || cfg.Period.DefaultTargetPoints != 77 || cfg.Log.Level != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolate(t)
	paths := GetPaths()
	paths.EnsureDirs()
	if err := os.WriteFile(paths.EnvFile, []byte("PUTZ_USER=bob\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set, even
	// empty ones, so drop the isolation value.
	os.Unsetenv("PUTZ_USER")
	t.Cleanup(func() { os.Unsetenv("PUTZ_USER") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User.ID != "bob" {
		t.Fatalf("expected user id from .env, got %q", cfg.User.ID)
	}
}

func TestSaveWritesFile(t *testing.T) {
	dir := isolate(t)
	cfg := defaultConfig()
	cfg.User.Name = "Alice"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "config", "putz", "config.toml")); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if !Initialized() {
		t.Fatal("Initialized should report true after Save")
	}
}

func TestLocation(t *testing.T) {
	if loc := (PeriodConfig{}).Location(); loc != time.UTC {
		t.Errorf("empty zone = %v", loc)
	}
	if loc := (PeriodConfig{Timezone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Errorf("bad zone = %v", loc)
	}
}
