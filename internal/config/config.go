package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable holding an optional YAML
// config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is read when CONFIG_PATH is unset and the file exists.
const DefaultConfigPath = "config.yaml"

// Default upstream locations.
const (
	DefaultFingertipsBaseURL = "https://fingertips.phe.org.uk/api"
	DefaultBoundariesURL     = "https://services1.arcgis.com/ESMARspQHYMw9BZ9/arcgis/rest/services/" +
		"Integrated_Care_Boards_April_2023_EN_BGC/FeatureServer/0/query?where=1%3D1&outFields=*&outSR=4326&f=geojson"
)

// Config holds all service settings. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Upstream data sources.
	FingertipsBaseURL    string        `koanf:"fingertips_base_url"`
	BoundariesURL        string        `koanf:"boundaries_url"`
	BoundaryCodeProperty string        `koanf:"boundary_code_property"`
	BoundaryNameProperty string        `koanf:"boundary_name_property"`
	UpstreamTimeout      time.Duration `koanf:"upstream_timeout"` // 0 disables the timeout
	DataDir              string        `koanf:"data_dir"`         // read snapshots instead of the network when set

	// Circuit breaker around the upstream sources.
	BreakerEnabled     bool          `koanf:"breaker_enabled"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`

	// HTTP middleware.
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests"` // 0 disables rate limiting
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
}

func defaultConfig() *Config {
	return &Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,

		FingertipsBaseURL:    DefaultFingertipsBaseURL,
		BoundariesURL:        DefaultBoundariesURL,
		BoundaryCodeProperty: "ICB23CD",
		BoundaryNameProperty: "ICB23NM",

		BreakerEnabled:     true,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,

		CORSAllowedOrigins: []string{"*"},
		RateLimitWindow:    time.Minute,
	}
}

// Load reads configuration, applying defaults where unset. A .env file in
// the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "cors_allowed_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.UpstreamTimeout < 0 {
		return errors.New("UPSTREAM_TIMEOUT must not be negative")
	}
	if c.DataDir == "" {
		if err := checkURL("FINGERTIPS_BASE_URL", c.FingertipsBaseURL); err != nil {
			return err
		}
		if err := checkURL("BOUNDARIES_URL", c.BoundariesURL); err != nil {
			return err
		}
	}
	if c.BoundaryCodeProperty == "" {
		return errors.New("BOUNDARY_CODE_PROPERTY is required")
	}
	if c.BreakerEnabled {
		if c.BreakerMaxFailures == 0 {
			return errors.New("BREAKER_MAX_FAILURES must be positive")
		}
		if c.BreakerOpenTimeout <= 0 {
			return errors.New("BREAKER_OPEN_TIMEOUT must be positive")
		}
	}
	if c.RateLimitRequests < 0 {
		return errors.New("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.RateLimitRequests > 0 && c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

// renderAllowance is the response time reserved for analysis and rendering.
const renderAllowance = 30 * time.Second

// WriteTimeout bounds one HTTP response: two upstream fetches plus
// rendering. It is 0, meaning no deadline, when UpstreamTimeout is 0.
func (c *Config) WriteTimeout() time.Duration {
	if c.UpstreamTimeout == 0 {
		return 0
	}
	return 2*c.UpstreamTimeout + renderAllowance
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q", name, raw)
	}
	return nil
}

func configFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// envKey maps an environment variable to its config key, or "" to ignore it.
func envKey(s string) string {
	key := strings.ToLower(s)
	if _, ok := knownKeys[key]; !ok {
		return ""
	}
	return key
}

var knownKeys = func() map[string]struct{} {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	keys := make(map[string]struct{}, len(k.Keys()))
	for _, key := range k.Keys() {
		keys[key] = struct{}{}
	}
	return keys
}()

// splitList turns a comma-separated string value at path into a slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}
