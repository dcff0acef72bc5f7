package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-pdfrender/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrEnvOverride     = errors.New("invalid environment override")
)

// EnvPrefix prefixes every environment override, e.g. PDFRENDER_SERVER_PORT.
const EnvPrefix = "PDFRENDER_"

// appDir is the directory searched under os.UserConfigDir.
const appDir = "go-pdfrender"

// Config holds the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Browser  BrowserConfig  `yaml:"browser"`
	Renderer RendererConfig `yaml:"renderer"`
	S3       S3Config       `yaml:"s3"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	MessageSizeLimit int64    `yaml:"messageSizeLimit"` // request body bytes
	MaxConnections   int      `yaml:"maxConnections"`   // 0 = unlimited
	ShutdownTimeout  Duration `yaml:"shutdownTimeout"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BrowserConfig defines how the shared browser is launched.
type BrowserConfig struct {
	Bin       string `yaml:"bin"` // empty = ROD_BROWSER_BIN or rod's managed download
	NoSandbox bool   `yaml:"noSandbox"`
	Headless  bool   `yaml:"headless"`
}

// RendererConfig defines orchestrator sizing.
type RendererConfig struct {
	QueueSize    int      `yaml:"queueSize"`
	ResultBuffer int      `yaml:"resultBuffer"`
	MaxTabs      int      `yaml:"maxTabs"` // 0 = derived from GOMAXPROCS, < 0 = unbounded
	JobTimeout   Duration `yaml:"jobTimeout"`
}

// S3Config defines the upload target. Empty Region disables uploads.
type S3Config struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"accessKey"`
	SecretKey      string `yaml:"secretKey"`
	ForcePathStyle bool   `yaml:"forcePathStyle"`
}

// Enabled reports whether uploads are configured.
func (s S3Config) Enabled() bool {
	return s.Region != ""
}

// LoggerConfig defines log output.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Duration is a time.Duration written as "30s" or "1m" in YAML and env.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			MessageSizeLimit: 64 << 20,
			ShutdownTimeout:  Duration(30 * time.Second),
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Renderer: RendererConfig{
			QueueSize:    32,
			ResultBuffer: 32,
			JobTimeout:   Duration(60 * time.Second),
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.MessageSizeLimit <= 0 {
		return fmt.Errorf("%w: server.messageSizeLimit must be positive", ErrInvalidConfig)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("%w: server.maxConnections must not be negative", ErrInvalidConfig)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server.shutdownTimeout must not be negative", ErrInvalidConfig)
	}
	if c.Renderer.QueueSize < 1 {
		return fmt.Errorf("%w: renderer.queueSize must be at least 1", ErrInvalidConfig)
	}
	if c.Renderer.ResultBuffer < 0 {
		return fmt.Errorf("%w: renderer.resultBuffer must not be negative", ErrInvalidConfig)
	}
	if c.Renderer.JobTimeout <= 0 {
		return fmt.Errorf("%w: renderer.jobTimeout must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logger.level %q", ErrInvalidConfig, c.Logger.Level)
	}
	switch strings.ToLower(c.Logger.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: logger.format %q", ErrInvalidConfig, c.Logger.Format)
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		return fmt.Errorf("%w: s3.accessKey and s3.secretKey must be set together", ErrInvalidConfig)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file (if
// nameOrPath is not empty), then .env entries, then PDFRENDER_* variables.
// The result is validated.
func Load(nameOrPath string) (*Config, error) {
	cfg := DefaultConfig()

	if nameOrPath != "" {
		path, err := resolve(nameOrPath)
		if err != nil {
			return nil, err
		}
		if err := yamlutil.ReadFile(path, cfg, yamlutil.Strict()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve treats values with a path separator as paths and everything else
// as a name searched in standard locations.
func resolve(nameOrPath string) (string, error) {
	if strings.TrimSpace(nameOrPath) == "" {
		return "", ErrEmptyConfigName
	}
	if strings.ContainsAny(nameOrPath, `/\`) || filepath.Ext(nameOrPath) != "" {
		return nameOrPath, nil
	}
	return resolveConfigPath(nameOrPath)
}

// SearchPaths lists where a config name is looked up, in order: the current
// directory, then the user config directory, each with .yaml then .yml.
func SearchPaths(name string) []string {
	exts := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(exts)*2)
	for _, ext := range exts {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range exts {
			paths = append(paths, filepath.Join(dir, appDir, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// applyEnv overlays PDFRENDER_<SECTION>_<FIELD> variables onto cfg.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	strs := map[string]*string{
		"SERVER_HOST":   &cfg.Server.Host,
		"BROWSER_BIN":   &cfg.Browser.Bin,
		"S3_ENDPOINT":   &cfg.S3.Endpoint,
		"S3_REGION":     &cfg.S3.Region,
		"S3_ACCESS_KEY": &cfg.S3.AccessKey,
		"S3_SECRET_KEY": &cfg.S3.SecretKey,
		"LOG_LEVEL":     &cfg.Logger.Level,
		"LOG_FORMAT":    &cfg.Logger.Format,
	}
	ints := map[string]*int{
		"SERVER_PORT":            &cfg.Server.Port,
		"SERVER_MAX_CONNECTIONS": &cfg.Server.MaxConnections,
		"RENDERER_QUEUE_SIZE":    &cfg.Renderer.QueueSize,
		"RENDERER_RESULT_BUFFER": &cfg.Renderer.ResultBuffer,
		"RENDERER_MAX_TABS":      &cfg.Renderer.MaxTabs,
	}
	bools := map[string]*bool{
		"BROWSER_NO_SANDBOX":  &cfg.Browser.NoSandbox,
		"BROWSER_HEADLESS":    &cfg.Browser.Headless,
		"S3_FORCE_PATH_STYLE": &cfg.S3.ForcePathStyle,
	}
	durations := map[string]*Duration{
		"SERVER_SHUTDOWN_TIMEOUT": &cfg.Server.ShutdownTimeout,
		"RENDERER_JOB_TIMEOUT":    &cfg.Renderer.JobTimeout,
	}

	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrEnvOverride, EnvPrefix, key, v)
			}
			*dst = n
		}
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrEnvOverride, EnvPrefix, key, v)
			}
			*dst = b
		}
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrEnvOverride, EnvPrefix, key, v)
			}
		}
	}
	if v, ok := lookup(EnvPrefix + "SERVER_MESSAGE_SIZE_LIMIT"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSERVER_MESSAGE_SIZE_LIMIT=%q", ErrEnvOverride, EnvPrefix, v)
		}
		cfg.Server.MessageSizeLimit = n
	}
	return nil
}
