package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL        = "http://127.0.0.1:7433"
	DefaultDBFileName    = ".schedr.db"
	DefaultLogLevel      = "info"
	DefaultAlarmSchedule = "@every 60s"

	DefaultWriteRateLimit       = 5.0
	DefaultWriteBurst           = 20
	DefaultMaxBodyBytes   int64 = 1 << 20

	DefaultLoginMaxFailures    = 5
	DefaultLoginWindowSeconds  = 300
	DefaultLoginLockoutSeconds = 900

	configFileName = ".schedr.toml"

	configDirEnvKey          = "SCHEDR_CONFIG_DIR"
	configFileEnvKey         = "SCHEDR_CONFIG"
	trustProjectConfigEnvKey = "SCHEDR_TRUST_PROJECT_CONFIG"
	apiURLEnvKey             = "SCHEDR_API_URL"
	dbPathEnvKey             = "SCHEDR_DB"
	timezoneEnvKey           = "SCHEDR_TIMEZONE"
	alarmScheduleEnvKey      = "SCHEDR_ALARM_SCHEDULE"
	alarmsEnabledEnvKey      = "SCHEDR_ALARMS_ENABLED"
)

// AlarmConfig controls the background alarm sweep.
type AlarmConfig struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Schedule string `toml:"schedule" yaml:"schedule"`
}

// ServerConfig controls HTTP request limits.
type ServerConfig struct {
	// WriteRateLimit is the sustained mutating requests per second allowed per user.
	WriteRateLimit float64 `toml:"write_rate_limit" yaml:"write_rate_limit"`
	WriteBurst     int     `toml:"write_burst" yaml:"write_burst"`
	MaxBodyBytes   int64   `toml:"max_body_bytes" yaml:"max_body_bytes"`

	// LoginMaxFailures failed logins within LoginWindowSeconds lock the
	// ip|username pair out for LoginLockoutSeconds.
	LoginMaxFailures    int `toml:"login_max_failures" yaml:"login_max_failures"`
	LoginWindowSeconds  int `toml:"login_window_seconds" yaml:"login_window_seconds"`
	LoginLockoutSeconds int `toml:"login_lockout_seconds" yaml:"login_lockout_seconds"`
}

// LoginWindow returns LoginWindowSeconds as a duration.
func (c ServerConfig) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowSeconds) * time.Second
}

// LoginLockout returns LoginLockoutSeconds as a duration.
func (c ServerConfig) LoginLockout() time.Duration {
	return time.Duration(c.LoginLockoutSeconds) * time.Second
}

// Config defines runtime configuration for schedr.
type Config struct {
	APIURL   string       `toml:"api_url" yaml:"api_url"`
	DBPath   string       `toml:"db_path" yaml:"db_path"`
	LogLevel string       `toml:"log_level" yaml:"log_level"`
	Timezone string       `toml:"timezone" yaml:"timezone"`
	Alarms   AlarmConfig  `toml:"alarms" yaml:"alarms"`
	Server   ServerConfig `toml:"server" yaml:"server"`

	// LoadedFrom lists the files that contributed to this config, in order.
	LoadedFrom []string `toml:"-" yaml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Alarms: AlarmConfig{
			Enabled:  true,
			Schedule: DefaultAlarmSchedule,
		},
		Server: ServerConfig{
			WriteRateLimit: DefaultWriteRateLimit,
			WriteBurst:     DefaultWriteBurst,
			MaxBodyBytes:   DefaultMaxBodyBytes,

			LoginMaxFailures:    DefaultLoginMaxFailures,
			LoginWindowSeconds:  DefaultLoginWindowSeconds,
			LoginLockoutSeconds: DefaultLoginLockoutSeconds,
		},
	}
}

// Location resolves Timezone. Empty or "Local" means the host zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return false, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	return true, nil
}

func overrideConfigPath() (string, bool) {
	if file := strings.TrimSpace(os.Getenv(configFileEnvKey)); file != "" {
		return file, true
	}
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"timezone",
	"alarms.enabled",
	"alarms.schedule",
	"server.write_rate_limit",
	"server.write_burst",
	"server.max_body_bytes",
	"server.login_max_failures",
	"server.login_window_seconds",
	"server.login_lockout_seconds",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "timezone":
		return c.Timezone, nil
	case "alarms.enabled":
		return strconv.FormatBool(c.Alarms.Enabled), nil
	case "alarms.schedule":
		return c.Alarms.Schedule, nil
	case "server.write_rate_limit":
		return strconv.FormatFloat(c.Server.WriteRateLimit, 'f', -1, 64), nil
	case "server.write_burst":
		return strconv.Itoa(c.Server.WriteBurst), nil
	case "server.max_body_bytes":
		return strconv.FormatInt(c.Server.MaxBodyBytes, 10), nil
	case "server.login_max_failures":
		return strconv.Itoa(c.Server.LoginMaxFailures), nil
	case "server.login_window_seconds":
		return strconv.Itoa(c.Server.LoginWindowSeconds), nil
	case "server.login_lockout_seconds":
		return strconv.Itoa(c.Server.LoginLockoutSeconds), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the config file at path, sets key=value, and writes it back
// in the same format (YAML for .yaml/.yml, TOML otherwise).
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if raw, err := os.ReadFile(path); err == nil {
		if isYAML(path) {
			if err := yaml.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
		} else if _, err := toml.Decode(string(raw), &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if data == nil {
		data = make(map[string]any)
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(data)
	}
	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				if err := loadFile(filepath.Join(cwd, configFileName), &cfg); err != nil {
					return nil, err
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		c.APIURL = apiURL
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		c.DBPath = dbPath
	}
	if tz := os.Getenv(timezoneEnvKey); tz != "" {
		c.Timezone = tz
	}
	if schedule := strings.TrimSpace(os.Getenv(alarmScheduleEnvKey)); schedule != "" {
		c.Alarms.Schedule = schedule
	}
	if raw := strings.TrimSpace(os.Getenv(alarmsEnabledEnvKey)); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			c.Alarms.Enabled = parsed
		}
	}
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Alarms.Schedule) == "" {
		c.Alarms.Schedule = DefaultAlarmSchedule
	}
	if c.Server.WriteRateLimit <= 0 {
		c.Server.WriteRateLimit = DefaultWriteRateLimit
	}
	if c.Server.WriteBurst <= 0 {
		c.Server.WriteBurst = DefaultWriteBurst
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.LoginMaxFailures <= 0 {
		c.Server.LoginMaxFailures = DefaultLoginMaxFailures
	}
	if c.Server.LoginWindowSeconds <= 0 {
		c.Server.LoginWindowSeconds = DefaultLoginWindowSeconds
	}
	if c.Server.LoginLockoutSeconds <= 0 {
		c.Server.LoginLockoutSeconds = DefaultLoginLockoutSeconds
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "server.write_burst", "server.login_max_failures", "server.login_window_seconds", "server.login_lockout_seconds":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "server.max_body_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "server.write_rate_limit":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive number", key)
		}
		return parsed, nil
	case "alarms.enabled":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "timezone":
		if value != "" && !strings.EqualFold(value, "local") {
			if _, err := time.LoadLocation(value); err != nil {
				return nil, fmt.Errorf("invalid timezone %q", value)
			}
		}
		return value, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}
