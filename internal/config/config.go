package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the top-level putz configuration.
type Config struct {
	User      UserConfig      `toml:"user"`
	Household HouseholdConfig `toml:"household"`
	Period    PeriodConfig    `toml:"period"`
	Notify    NotifyConfig    `toml:"notify"`
	Log       LogConfig       `toml:"log"`
}

// UserConfig identifies the person using this installation. ID is the
// default executor for `putz done`.
type UserConfig struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
}

// HouseholdConfig selects the household used when the state has none.
type HouseholdConfig struct {
	Default string `toml:"default"`
}

// PeriodConfig holds defaults for new periods.
type PeriodConfig struct {
	// DefaultTargetPoints is used when members have no monthly targets.
	DefaultTargetPoints int  `toml:"default_target_points"`
	ResetOnNew          bool `toml:"reset_on_new"`
	// Timezone is the IANA zone used to bucket months and weekdays.
	Timezone string `toml:"timezone"`
}

// Location resolves Timezone, falling back to UTC.
func (p PeriodConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotifyConfig points at the notification relay.
type NotifyConfig struct {
	// Enabled defaults to "on when an endpoint is set".
	Enabled  *bool  `toml:"enabled,omitempty"`
	Endpoint string `toml:"endpoint"`
}

// IsEnabled returns whether notifications should be sent.
func (n NotifyConfig) IsEnabled() bool {
	if n.Enabled != nil {
		return *n.Enabled && n.Endpoint != ""
	}
	return n.Endpoint != ""
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// Paths returns standard XDG-compliant paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	StateDir   string
	ConfigFile string
	EnvFile    string
	DBFile     string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dataDir := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	cacheDir := envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	stateDir := envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))

	putzConfig := filepath.Join(configDir, "putz")
	putzData := filepath.Join(dataDir, "putz")

	return Paths{
		ConfigDir:  putzConfig,
		DataDir:    putzData,
		CacheDir:   filepath.Join(cacheDir, "putz"),
		StateDir:   filepath.Join(stateDir, "putz"),
		ConfigFile: filepath.Join(putzConfig, "config.toml"),
		EnvFile:    filepath.Join(putzConfig, ".env"),
		DBFile:     filepath.Join(putzData, "putz.db"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Load reads config from disk over the defaults, then applies PUTZ_*
// overrides from the environment and the optional .env file next to the
// config.
func Load() (*Config, error) {
	paths := GetPaths()
	cfg := defaultConfig()

	data, err := os.ReadFile(paths.ConfigFile)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	// A missing .env is the common case.
	_ = godotenv.Load(paths.EnvFile)
	applyEnv(cfg)
	return cfg, nil
}

// Save writes config to disk.
func Save(cfg *Config) error {
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f, err := os.Create(paths.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Initialized returns true if a config file exists.
func Initialized() bool {
	paths := GetPaths()
	_, err := os.Stat(paths.ConfigFile)
	return err == nil
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(v bool) *bool {
	return &v
}

func defaultConfig() *Config {
	return &Config{
		Period: PeriodConfig{
			DefaultTargetPoints: DefaultTargetPoints,
			Timezone:            "Europe/Berlin",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultTargetPoints is the per-period target when nothing else is known.
const DefaultTargetPoints = 100

// applyEnv lets PUTZ_* variables override file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PUTZ_NOTIFY_ENDPOINT"); v != "" {
		cfg.Notify.Endpoint = v
	}
	if v := os.Getenv("PUTZ_HOUSEHOLD"); v != "" {
		cfg.Household.Default = v
	}
	if v := os.Getenv("PUTZ_USER"); v != "" {
		cfg.User.ID = v
	}
	if v := os.Getenv("PUTZ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PUTZ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PUTZ_DEFAULT_TARGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Period.DefaultTargetPoints = n
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
