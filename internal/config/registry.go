package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyType represents the data type of a config key.
type KeyType string

const (
	KeyTypeString KeyType = "string"
	KeyTypeInt    KeyType = "int"
	KeyTypeBool   KeyType = "bool"
)

// KeyEntry describes a known, settable config key.
type KeyEntry struct {
	Type       KeyType
	Desc       string
	DefaultStr string

	get   func(*Config) string
	set   func(cfg *Config, value string) error
	unset func(cfg *Config)
}

// Get returns the current value of the key as a string.
func (e *KeyEntry) Get(cfg *Config) string { return e.get(cfg) }

// Set validates and sets the value, returning a descriptive error on type mismatch.
func (e *KeyEntry) Set(cfg *Config, value string) error { return e.set(cfg, value) }

// Unset resets the key to its schema default.
func (e *KeyEntry) Unset(cfg *Config) { e.unset(cfg) }

// SchemaKeys is the registry of all settable config keys, in dot-notation
// matching the TOML sections.
var SchemaKeys = map[string]*KeyEntry{
	"user.name": {
		Type:  KeyTypeString,
		Desc:  "Display name",
		get:   func(cfg *Config) string { return cfg.User.Name },
		set:   func(cfg *Config, v string) error { cfg.User.Name = v; return nil },
		unset: func(cfg *Config) { cfg.User.Name = "" },
	},
	"user.id": {
		Type:  KeyTypeString,
		Desc:  "Your user id; default executor for `putz done`",
		get:   func(cfg *Config) string { return cfg.User.ID },
		set:   func(cfg *Config, v string) error { cfg.User.ID = v; return nil },
		unset: func(cfg *Config) { cfg.User.ID = "" },
	},
	"household.default": {
		Type:  KeyTypeString,
		Desc:  "Household selected when the state has none",
		get:   func(cfg *Config) string { return cfg.Household.Default },
		set:   func(cfg *Config, v string) error { cfg.Household.Default = v; return nil },
		unset: func(cfg *Config) { cfg.Household.Default = "" },
	},
	"period.default_target_points": {
		Type:       KeyTypeInt,
		Desc:       "Target points for a new period when members set none",
		DefaultStr: strconv.Itoa(DefaultTargetPoints),
		get:        func(cfg *Config) string { return strconv.Itoa(cfg.Period.DefaultTargetPoints) },
		set: func(cfg *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value %q for period.default_target_points: want a non-negative integer", v)
			}
			cfg.Period.DefaultTargetPoints = n
			return nil
		},
		unset: func(cfg *Config) { cfg.Period.DefaultTargetPoints = DefaultTargetPoints },
	},
	"period.reset_on_new": {
		Type:       KeyTypeBool,
		Desc:       "Clear live executions when a new period starts",
		DefaultStr: "false",
		get:        func(cfg *Config) string { return strconv.FormatBool(cfg.Period.ResetOnNew) },
		set: func(cfg *Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for period.reset_on_new: %w", v, err)
			}
			cfg.Period.ResetOnNew = b
			return nil
		},
		unset: func(cfg *Config) { cfg.Period.ResetOnNew = false },
	},
	"period.timezone": {
		Type:       KeyTypeString,
		Desc:       "IANA timezone for month and weekday buckets",
		DefaultStr: "Europe/Berlin",
		get:        func(cfg *Config) string { return cfg.Period.Timezone },
		set:        func(cfg *Config, v string) error { cfg.Period.Timezone = v; return nil },
		unset:      func(cfg *Config) { cfg.Period.Timezone = "Europe/Berlin" },
	},
	"notify.endpoint": {
		Type:  KeyTypeString,
		Desc:  "Notification relay URL",
		get:   func(cfg *Config) string { return cfg.Notify.Endpoint },
		set:   func(cfg *Config, v string) error { cfg.Notify.Endpoint = v; return nil },
		unset: func(cfg *Config) { cfg.Notify.Endpoint = "" },
	},
	"notify.enabled": {
		Type:       KeyTypeBool,
		Desc:       "Send notifications (on by default once an endpoint is set)",
		DefaultStr: "true",
		get:        func(cfg *Config) string { return strconv.FormatBool(cfg.Notify.IsEnabled()) },
		set: func(cfg *Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for notify.enabled: %w", v, err)
			}
			cfg.Notify.Enabled = BoolPtr(b)
			return nil
		},
		unset: func(cfg *Config) { cfg.Notify.Enabled = nil },
	},
	"log.level": {
		Type:       KeyTypeString,
		Desc:       "Log level (debug, info, warn, error)",
		DefaultStr: "warn",
		get:        func(cfg *Config) string { return cfg.Log.Level },
		set:        func(cfg *Config, v string) error { cfg.Log.Level = v; return nil },
		unset:      func(cfg *Config) { cfg.Log.Level = "warn" },
	},
	"log.format": {
		Type:       KeyTypeString,
		Desc:       "Log format (text, json)",
		DefaultStr: "text",
		get:        func(cfg *Config) string { return cfg.Log.Format },
		set: func(cfg *Config, v string) error {
			switch v {
			case "text", "json":
				cfg.Log.Format = v
				return nil
			}
			return fmt.Errorf("invalid value %q for log.format (use text or json)", v)
		},
		unset: func(cfg *Config) { cfg.Log.Format = "text" },
	},
}

// ValidKeyNames returns the sorted list of all known config key names.
func ValidKeyNames() []string {
	names := make([]string, 0, len(SchemaKeys))
	for k := range SchemaKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKey returns the KeyEntry for a known config key.
func LookupKey(key string) (*KeyEntry, bool) {
	entry, ok := SchemaKeys[key]
	return entry, ok
}

// ParseBoolValue accepts true/false, 1/0, yes/no and on/off.
func ParseBoolValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q (use one of: true/false, 1/0, yes/no, on/off)", s)
	}
}
