// Package config builds the foldersync configuration from command-line
// arguments, environment overrides and an optional YAML or TOML settings file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/CageChen/foldersync/internal/logging"
)

// Usage is printed when the positional arguments are wrong.
const Usage = "Usage: foldersync [-config file] [-status addr] [-log-level level] [-seed=true|false] " +
	"<sourceFolder> <replicaFolder> <syncIntervalInSeconds> <logFilePath>"

// EnvLogLevel overrides the log level from the settings file.
const EnvLogLevel = "FOLDERSYNC_LOG_LEVEL"

var (
	// ErrUsage means the command line did not have the expected shape.
	ErrUsage = errors.New("wrong number of arguments")

	// ErrInvalidInterval means the sync interval was not a positive integer.
	ErrInvalidInterval = errors.New("invalid synchronization interval")

	// ErrOverlap means one root lies inside the other.
	ErrOverlap = errors.New("source and replica folders overlap")
)

// Config holds everything a foldersync process needs. It is built once at
// startup and passed down explicitly.
type Config struct {
	SourceDir  string        `yaml:"-"`
	ReplicaDir string        `yaml:"-"`
	Interval   time.Duration `yaml:"-"`
	LogFile    string        `yaml:"-"`

	// StatusAddr enables the HTTP status API when non-empty.
	StatusAddr string `yaml:"status_addr"`
	LogLevel   string `yaml:"log_level"`
	// Seed writes the demo files into a freshly created source folder.
	Seed bool `yaml:"seed"`

	// Internal: settings file the values were read from, if any
	configPath string
}

// fileConfig is the TOML key mapping of the settings file.
type fileConfig struct {
	StatusAddr string `toml:"status_addr"`
	LogLevel   string `toml:"log_level"`
	Seed       bool   `toml:"seed"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Seed:     true,
	}
}

// Load parses args (without the program name). Flags must precede the four
// positional arguments. Precedence, lowest first: defaults, settings file,
// environment, flags.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fset := flag.NewFlagSet("foldersync", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	configFile := fset.String("config", "", "Settings file (.yaml, .yml or .toml)")
	statusAddr := fset.String("status", "", "Serve the status API on this address")
	logLevel := fset.String("log-level", "", "Log level (debug, info, warn, error)")
	seed := fset.Bool("seed", true, "Create demo files in a new source folder")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *configFile != "" {
		if err := cfg.loadFromFile(*configFile); err != nil {
			return nil, err
		}
		cfg.configPath = *configFile
	}

	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		cfg.LogLevel = lvl
	}

	// Flags override the file only when explicitly set
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "status":
			cfg.StatusAddr = *statusAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		case "seed":
			cfg.Seed = *seed
		}
	})

	positional := fset.Args()
	if len(positional) != 4 {
		return nil, ErrUsage
	}
	cfg.SourceDir = positional[0]
	cfg.ReplicaDir = positional[1]
	secs, err := strconv.Atoi(strings.TrimSpace(positional[2]))
	if err != nil || secs <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, positional[2])
	}
	cfg.Interval = time.Duration(secs) * time.Second
	cfg.LogFile = positional[3]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that Load cannot check while parsing.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" || strings.TrimSpace(c.ReplicaDir) == "" {
		return fmt.Errorf("%w: source and replica folders are required", ErrUsage)
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("%w: log file path is required", ErrUsage)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if overlaps(c.SourceDir, c.ReplicaDir) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, c.SourceDir, c.ReplicaDir)
	}
	return nil
}

// overlaps reports whether a and b are the same directory or one contains the other.
func overlaps(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return false
	}
	return within(absA, absB) || within(absB, absA)
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (c *Config) loadFromFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return c.loadToml(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	}
}

func (c *Config) loadToml(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if meta.IsDefined("status_addr") {
		c.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("seed") {
		c.Seed = raw.Seed
	}
	return nil
}

// GetConfigFilePath returns the settings file the configuration was read from.
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
