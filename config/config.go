package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/gitgazer/internal/constants"
	"github.com/spiffcs/gitgazer/internal/duration"
)

// Config represents the application configuration. Every field is optional;
// the getters fall back to the defaults in internal/constants.
type Config struct {
	DefaultFormat  string `yaml:"default_format,omitempty" json:"default_format,omitempty" toml:"default_format,omitempty"`
	TopN           *int   `yaml:"top_n,omitempty" json:"top_n,omitempty" toml:"top_n,omitempty"`
	MaxPages       *int   `yaml:"max_pages,omitempty" json:"max_pages,omitempty" toml:"max_pages,omitempty"`
	RequestTimeout string `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty" toml:"request_timeout,omitempty"`

	Cache  *CacheConfig  `yaml:"cache,omitempty" json:"cache,omitempty" toml:"cache,omitempty"`
	API    *APIConfig    `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty" json:"server,omitempty" toml:"server,omitempty"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend   string `yaml:"backend,omitempty" json:"backend,omitempty" toml:"backend,omitempty"`
	TTL       string `yaml:"ttl,omitempty" json:"ttl,omitempty" toml:"ttl,omitempty"`
	Dir       string `yaml:"dir,omitempty" json:"dir,omitempty" toml:"dir,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty" toml:"redis_addr,omitempty"`
	RedisDB   *int   `yaml:"redis_db,omitempty" json:"redis_db,omitempty" toml:"redis_db,omitempty"`
}

// APIConfig points the client at a GitHub REST endpoint.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" toml:"base_url,omitempty"`
}

// ServerConfig configures `gitgazer serve`.
type ServerConfig struct {
	Addr         string   `yaml:"addr,omitempty" json:"addr,omitempty" toml:"addr,omitempty"`
	AllowOrigins []string `yaml:"allow_origins,omitempty" json:"allow_origins,omitempty" toml:"allow_origins,omitempty"`
}

// Supported values for validation.
var (
	validFormats  = []string{"table", "json", "markdown"}
	validBackends = []string{"file", "memory", "redis", "none"}
)

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".gitgazer"
	}
	return filepath.Join(configDir, "gitgazer")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".gitgazer.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load reads a .env file from the working directory if present, then the
// global config, then merges any local .gitgazer.yaml on top (local values
// take precedence).
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadDotEnv loads environment variables from path without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFrom loads and merges the config files at globalPath and localPath.
// Either file may be missing.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("local config: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.TopN != nil {
		result.TopN = local.TopN
	}
	if local.MaxPages != nil {
		result.MaxPages = local.MaxPages
	}
	if local.RequestTimeout != "" {
		result.RequestTimeout = local.RequestTimeout
	}

	result.Cache = mergeCache(global.Cache, local.Cache)

	if local.API != nil && local.API.BaseURL != "" {
		result.API = &APIConfig{BaseURL: local.API.BaseURL}
	}

	if local.Server != nil {
		srv := ServerConfig{}
		if global.Server != nil {
			srv = *global.Server
		}
		if local.Server.Addr != "" {
			srv.Addr = local.Server.Addr
		}
		if len(local.Server.AllowOrigins) > 0 {
			srv.AllowOrigins = local.Server.AllowOrigins
		}
		result.Server = &srv
	}

	return &result
}

func mergeCache(global, local *CacheConfig) *CacheConfig {
	if local == nil {
		return global
	}
	result := CacheConfig{}
	if global != nil {
		result = *global
	}
	if local.Backend != "" {
		result.Backend = local.Backend
	}
	if local.TTL != "" {
		result.TTL = local.TTL
	}
	if local.Dir != "" {
		result.Dir = local.Dir
	}
	if local.RedisAddr != "" {
		result.RedisAddr = local.RedisAddr
	}
	if local.RedisDB != nil {
		result.RedisDB = local.RedisDB
	}
	return &result
}

// Validate reports the first invalid value in the config.
func (c *Config) Validate() error {
	if c.DefaultFormat != "" && !slices.Contains(validFormats, c.DefaultFormat) {
		return fmt.Errorf("invalid default_format %q (valid: %s)", c.DefaultFormat, strings.Join(validFormats, ", "))
	}
	if c.TopN != nil && *c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", *c.TopN)
	}
	if c.MaxPages != nil && *c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", *c.MaxPages)
	}
	if c.RequestTimeout != "" {
		if _, err := duration.Parse(c.RequestTimeout); err != nil {
			return fmt.Errorf("invalid request_timeout: %w", err)
		}
	}
	if c.Cache != nil {
		if c.Cache.Backend != "" && !slices.Contains(validBackends, c.Cache.Backend) {
			return fmt.Errorf("invalid cache.backend %q (valid: %s)", c.Cache.Backend, strings.Join(validBackends, ", "))
		}
		if c.Cache.TTL != "" {
			if _, err := duration.Parse(c.Cache.TTL); err != nil {
				return fmt.Errorf("invalid cache.ttl: %w", err)
			}
		}
	}
	return nil
}

// GetDefaultFormat returns the configured output format or "table".
func (c *Config) GetDefaultFormat() string {
	if c.DefaultFormat == "" {
		return "table"
	}
	return c.DefaultFormat
}

// GetTopN returns the star ranking size.
func (c *Config) GetTopN() int {
	if c.TopN == nil {
		return constants.DefaultTopN
	}
	return *c.TopN
}

// GetMaxPages returns the repository pagination limit.
func (c *Config) GetMaxPages() int {
	if c.MaxPages == nil {
		return constants.DefaultMaxPages
	}
	return *c.MaxPages
}

// GetRequestTimeout returns the per-request HTTP timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := duration.ParseOr(c.RequestTimeout, constants.DefaultRequestTimeout)
	if err != nil {
		return constants.DefaultRequestTimeout
	}
	return d
}

// GetCacheBackend returns the configured cache backend or "file".
func (c *Config) GetCacheBackend() string {
	if c.Cache == nil || c.Cache.Backend == "" {
		return "file"
	}
	return c.Cache.Backend
}

// GetCacheTTL returns how long cached results stay valid.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache == nil {
		return constants.ProfileCacheTTL
	}
	d, err := duration.ParseOr(c.Cache.TTL, constants.ProfileCacheTTL)
	if err != nil {
		return constants.ProfileCacheTTL
	}
	return d
}

// GetCacheDir returns the file cache directory; empty selects the default.
func (c *Config) GetCacheDir() string {
	if c.Cache == nil {
		return ""
	}
	return c.Cache.Dir
}

// GetRedisAddr returns the redis address for the redis backend.
func (c *Config) GetRedisAddr() string {
	if c.Cache == nil || c.Cache.RedisAddr == "" {
		return constants.DefaultRedisAddr
	}
	return c.Cache.RedisAddr
}

// GetRedisDB returns the redis database number.
func (c *Config) GetRedisDB() int {
	if c.Cache == nil || c.Cache.RedisDB == nil {
		return 0
	}
	return *c.Cache.RedisDB
}

// GetBaseURL returns the GitHub REST endpoint.
func (c *Config) GetBaseURL() string {
	if c.API == nil || c.API.BaseURL == "" {
		return constants.DefaultBaseURL
	}
	return c.API.BaseURL
}

// GetServerAddr returns the listen address for the HTTP API.
func (c *Config) GetServerAddr() string {
	if c.Server == nil || c.Server.Addr == "" {
		return constants.DefaultServerAddr
	}
	return c.Server.Addr
}

// GetAllowOrigins returns the CORS origins for the HTTP API.
func (c *Config) GetAllowOrigins() []string {
	if c.Server == nil {
		return nil
	}
	return c.Server.AllowOrigins
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Tokens are only read from the environment (or a .env file loaded into it).
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	return []string{
		"default_format",
		"top_n",
		"max_pages",
		"request_timeout",
		"cache.backend",
		"cache.ttl",
		"cache.dir",
		"cache.redis_addr",
		"cache.redis_db",
		"api.base_url",
		"server.addr",
	}
}

// Set assigns a single setting by its dotted key and validates the result.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)

	parseInt := func() (*int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return &n, nil
	}
	cache := func() *CacheConfig {
		if c.Cache == nil {
			c.Cache = &CacheConfig{}
		}
		return c.Cache
	}

	var err error
	switch key {
	case "default_format":
		c.DefaultFormat = value
	case "top_n":
		c.TopN, err = parseInt()
	case "max_pages":
		c.MaxPages, err = parseInt()
	case "request_timeout":
		c.RequestTimeout = value
	case "cache.backend":
		cache().Backend = value
	case "cache.ttl":
		cache().TTL = value
	case "cache.dir":
		cache().Dir = value
	case "cache.redis_addr":
		cache().RedisAddr = value
	case "cache.redis_db":
		cache().RedisDB, err = parseInt()
	case "api.base_url":
		c.API = &APIConfig{BaseURL: value}
	case "server.addr":
		if c.Server == nil {
			c.Server = &ServerConfig{}
		}
		c.Server.Addr = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// Save saves the configuration to the global config file.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration as YAML to path.
func (c *Config) SaveTo(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return SaveTo(path, data)
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	topN := constants.DefaultTopN
	maxPages := constants.DefaultMaxPages
	redisDB := 0

	return &Config{
		DefaultFormat:  "table",
		TopN:           &topN,
		MaxPages:       &maxPages,
		RequestTimeout: constants.DefaultRequestTimeout.String(),
		Cache: &CacheConfig{
			Backend:   "file",
			TTL:       constants.ProfileCacheTTL.String(),
			RedisAddr: constants.DefaultRedisAddr,
			RedisDB:   &redisDB,
		},
		API:    &APIConfig{BaseURL: constants.DefaultBaseURL},
		Server: &ServerConfig{Addr: constants.DefaultServerAddr},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ToJSON returns the config as an indented JSON string
func (c *Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data) + "\n", nil
}

// ToTOML returns the config as a TOML string
func (c *Config) ToTOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.String(), nil
}

// Render returns the config in the named format: yaml, json or toml.
func (c *Config) Render(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return c.ToYAML()
	case "json":
		return c.ToJSON()
	case "toml":
		return c.ToTOML()
	default:
		return "", fmt.Errorf("unknown config format %q (valid: yaml, json, toml)", format)
	}
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# gitgazer configuration file
# See: gitgazer config defaults  (for all available options)

# Output format: table, json or markdown
default_format: table

# Number of repositories in the star ranking
# top_n: 10

# Cache backend: file, memory, redis or none
# cache:
#   backend: file
#   ttl: 1h

# GitHub Enterprise endpoint (optional)
# api:
#   base_url: https://github.example.com/api/v3/

# The token is read from GITHUB_TOKEN or a .env file, never from this file.
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
