// Package config loads the thema CLI configuration from YAML, a .env file
// and THEMA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/thema-client/pkg/client"
	"github.com/Sternrassler/thema-client/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultRelPath is the config file location under the home directory.
const DefaultRelPath = ".thema/config.yaml"

// APIConfig holds the service endpoint, credentials and request limits.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	AllEditions    bool          `yaml:"all_editions"`
}

// RedisConfig enables the shared master data cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// OutputConfig names the directory spreadsheets are written to.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig selects the log level and console output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the full CLI configuration as stored in config.yaml.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Redis  RedisConfig  `yaml:"redis"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultPath returns ~/.thema/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DefaultRelPath), nil
}

// Load reads .env from the working directory if present, then the YAML
// config at configPath (default ~/.thema/config.yaml, missing is fine), then
// applies THEMA_* environment overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}
	cfg.SetDefaults()

	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

// SetDefaults fills every unset field with its default.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = client.DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 60 * time.Second
	}
	if c.API.MaxConcurrency == 0 {
		c.API.MaxConcurrency = 4
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the settings every command needs. Credentials are
// checked separately by ValidateCredentials.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) url (got %q)", c.API.BaseURL)
	}
	if c.API.MaxConcurrency < 1 {
		return fmt.Errorf("api.max_concurrency must be >= 1 (got %d)", c.API.MaxConcurrency)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative (got %s)", c.API.Timeout)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db cannot be negative (got %d)", c.Redis.DB)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateCredentials enforces what commands talking to the API need.
func (c *Config) ValidateCredentials() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.API.Username) == "" {
		return errors.New("api.username cannot be empty (set it in the config file or THEMA_USERNAME)")
	}
	if c.API.Password == "" {
		return errors.New("api.password cannot be empty (set it in .env or THEMA_PASSWORD)")
	}
	return nil
}

// ClientConfig maps the file configuration onto a client configuration.
// The Redis client is nil unless redis.addr is set.
func (c *Config) ClientConfig() client.Config {
	cc := client.DefaultConfig(c.API.Username, c.API.Password)
	cc.BaseURL = c.API.BaseURL
	cc.HTTPTimeout = c.API.Timeout
	cc.MaxConcurrency = c.API.MaxConcurrency
	cc.AllEditions = c.API.AllEditions
	cc.MasterDataTTL = c.Redis.TTL
	cc.Redis = c.RedisClient()
	return cc
}

// RedisClient returns a client for the snapshot cache, or nil when no
// address is configured.
func (c *Config) RedisClient() *redis.Client {
	if c.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// Logging returns the logging configuration.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = lvl
	}
	lc.Pretty = c.Log.Pretty
	return lc
}

func applyEnvOverrides(c *Config) error {
	setString(&c.API.BaseURL, "THEMA_BASE_URL")
	setString(&c.API.Username, "THEMA_USERNAME")
	setString(&c.API.Password, "THEMA_PASSWORD")
	if err := setDuration(&c.API.Timeout, "THEMA_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&c.API.MaxConcurrency, "THEMA_MAX_CONCURRENCY"); err != nil {
		return err
	}
	setString(&c.Redis.Addr, "THEMA_REDIS_ADDR")
	setString(&c.Redis.Password, "THEMA_REDIS_PASSWORD")
	if err := setInt(&c.Redis.DB, "THEMA_REDIS_DB"); err != nil {
		return err
	}
	setString(&c.Output.Dir, "THEMA_OUTPUT_DIR")
	setString(&c.Log.Level, "THEMA_LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

// setDuration accepts Go durations ("90s") or a plain number of seconds.
func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a duration", key, v)
	}
	*dst = d
	return nil
}

// DefaultContent is the file written by `thema init`.
const DefaultContent = `api:
  base_url: "https://portal.thema.no/customer-api"
  username: ""
  # password is best kept in .env as THEMA_PASSWORD
  password: ""
  timeout: 60s
  max_concurrency: 4
  all_editions: false

redis:
  # leave empty to keep master data in memory only
  addr: ""
  password: ""
  db: 0
  ttl: 1h

output:
  dir: "./output"

log:
  level: "info"
  pretty: false
`
