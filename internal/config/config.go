package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel          = "warn"
	DefaultMaxContentBytes   = 10 << 20
	DefaultMaxExecutionSteps = 10_000_000
	DefaultCacheTTL          = 10 * time.Minute
)

// Config holds the server settings shared by every tool.
type Config struct {
	LogLevel          string
	MaxContentBytes   int
	MaxExecutionSteps uint64 // 0 means unlimited
	CacheTTL          time.Duration
	DisabledTools     []string

	// Warnings lists values that were ignored because they could not be parsed.
	Warnings []string
}

// fileConfig mirrors config.yaml; nil fields keep the current value.
type fileConfig struct {
	LogLevel          *string  `yaml:"log_level"`
	MaxContentBytes   *int     `yaml:"max_content_bytes"`
	MaxExecutionSteps *uint64  `yaml:"max_execution_steps"`
	CacheTTL          *string  `yaml:"cache_ttl"`
	DisabledTools     []string `yaml:"disabled_tools"`
}

var (
	current   *Config
	currentMu sync.RWMutex
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel:          DefaultLogLevel,
		MaxContentBytes:   DefaultMaxContentBytes,
		MaxExecutionSteps: DefaultMaxExecutionSteps,
		CacheTTL:          DefaultCacheTTL,
	}
}

// DefaultPath returns ~/.mcp-mq/config.yaml, or "" when the home directory is unknown.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".mcp-mq", "config.yaml")
}

// Load builds a Config from defaults, an optional YAML file and the environment.
//
// A .env file in the working directory is loaded first without overriding variables
// that are already set. When path is empty MCP_MQ_CONFIG is consulted, then
// DefaultPath. A missing default file is not an error; a missing explicit one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("MCP_MQ_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.applyEnv()
	cfg.validate()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.MaxContentBytes != nil {
		c.setMaxContentBytes(*fc.MaxContentBytes, "max_content_bytes")
	}
	if fc.MaxExecutionSteps != nil {
		c.MaxExecutionSteps = *fc.MaxExecutionSteps
	}
	if fc.CacheTTL != nil {
		c.setCacheTTL(*fc.CacheTTL, "cache_ttl")
	}
	if len(fc.DisabledTools) > 0 {
		c.DisabledTools = append(c.DisabledTools, fc.DisabledTools...)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("MQ_MAX_CONTENT_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.warnf("MQ_MAX_CONTENT_BYTES: %q is not an integer", v)
		} else {
			c.setMaxContentBytes(n, "MQ_MAX_CONTENT_BYTES")
		}
	}

	if v := os.Getenv("MQ_MAX_EXECUTION_STEPS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.warnf("MQ_MAX_EXECUTION_STEPS: %q is not a non-negative integer", v)
		} else {
			c.MaxExecutionSteps = n
		}
	}

	if v := os.Getenv("MQ_CACHE_TTL"); v != "" {
		c.setCacheTTL(v, "MQ_CACHE_TTL")
	}

	for name := range strings.SplitSeq(os.Getenv("DISABLED_TOOLS"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			c.DisabledTools = append(c.DisabledTools, name)
		}
	}
}

func (c *Config) validate() {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		c.warnf("log level %q is not recognised, using %s", c.LogLevel, DefaultLogLevel)
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) setMaxContentBytes(n int, source string) {
	if n <= 0 {
		c.warnf("%s: %d must be positive", source, n)
		return
	}
	c.MaxContentBytes = n
}

func (c *Config) setCacheTTL(v, source string) {
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		c.warnf("%s: %q is not a valid duration", source, v)
		return
	}
	c.CacheTTL = d
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// Set installs cfg as the configuration returned by Get.
func Set(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}

// Get returns the installed configuration, or the defaults when none was set.
func Get() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	if current == nil {
		return Default()
	}
	return current
}
