// Package config loads and saves the dbmeta configuration file, which holds
// the tool settings together with the project tree discovery populates.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ryanuber/go-glob"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/dbmeta/internal/schema"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.dbmeta/dbmeta.yaml"

	DefaultWorkers     = 8
	DefaultRetryBudget = 5
	DefaultRetryDelay  = 50 * time.Millisecond
)

// Config is the top-level configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Logging   LogConfig       `yaml:"logging,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
	Execution ExecConfig      `yaml:"execution,omitempty"`
	Project   *schema.Project `yaml:"project"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
}

// DiscoveryConfig bounds and filters discovery runs.
type DiscoveryConfig struct {
	Workers int `yaml:"workers,omitempty"`
	// MaxConnections caps each dbms connection pool; zero keeps the driver
	// default.
	MaxConnections int      `yaml:"max_connections,omitempty"`
	IncludeSchemas []string `yaml:"include_schemas,omitempty"`
	ExcludeSchemas []string `yaml:"exclude_schemas,omitempty"`
}

// ExecConfig defines the retry policy of transactional statement batches.
type ExecConfig struct {
	RetryBudget int           `yaml:"retry_budget,omitempty"`
	RetryDelay  time.Duration `yaml:"retry_delay,omitempty"`
}

// Default returns a configuration with every default applied and an empty
// project.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion, Project: &schema.Project{ID: "default"}}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path. Secret references are written
// back unresolved.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Discovery.Workers == 0 {
		c.Discovery.Workers = DefaultWorkers
	}
	if c.Execution.RetryBudget == 0 {
		c.Execution.RetryBudget = DefaultRetryBudget
	}
	if c.Execution.RetryDelay == 0 {
		c.Execution.RetryDelay = DefaultRetryDelay
	}
	if c.Project == nil {
		c.Project = &schema.Project{ID: "default"}
	}
	c.Project.Relink()
}

// Validate checks the settings and the uniqueness of dbms ids.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	if c.Discovery.Workers < 0 {
		return fmt.Errorf("discovery workers must be positive, got %d", c.Discovery.Workers)
	}
	if c.Execution.RetryBudget < 0 {
		return fmt.Errorf("retry budget must be positive, got %d", c.Execution.RetryBudget)
	}

	seen := make(map[string]bool)
	for i, d := range c.Project.Dbmses {
		if d.ID == "" {
			return fmt.Errorf("dbms #%d has no id", i+1)
		}
		if seen[d.ID] {
			return &schema.DuplicateIDError{Kind: schema.KindDbms, ID: d.ID, Parent: c.Project.ID}
		}
		seen[d.ID] = true
		if d.TypeName == "" {
			return fmt.Errorf("dbms %s has no type", d.ID)
		}
	}
	return nil
}

// SchemaFilter compiles the include and exclude glob lists into a schema
// name predicate. An empty include list admits every name; exclusion wins
// over inclusion.
func (c *Config) SchemaFilter() func(string) bool {
	include := c.Discovery.IncludeSchemas
	exclude := c.Discovery.ExcludeSchemas
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return func(name string) bool {
		if matchAny(exclude, name) {
			return false
		}
		return len(include) == 0 || matchAny(include, name)
	}
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if glob.Glob(p, name) {
			return true
		}
	}
	return false
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

// ResolveValue replaces ${ENV:NAME} references with the named environment
// variable. An unset variable is an error.
func ResolveValue(val string) (string, error) {
	var missing []string
	out := secretPattern.ReplaceAllStringFunc(val, func(ref string) string {
		name := secretPattern.FindStringSubmatch(ref)[1]
		v, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("environment variable %s not set", strings.Join(missing, ", "))
	}
	return out, nil
}

// ResolveConnection returns conn with secret references in its URL and
// password resolved. The configured value is left untouched so that Save
// never writes a secret.
func ResolveConnection(conn schema.Connection) (schema.Connection, error) {
	var err error
	if conn.URL, err = ResolveValue(conn.URL); err != nil {
		return conn, fmt.Errorf("connection url: %w", err)
	}
	if conn.Password, err = ResolveValue(conn.Password); err != nil {
		return conn, fmt.Errorf("connection password: %w", err)
	}
	return conn, nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
