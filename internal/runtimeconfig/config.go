package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/internal/storage"
)

// EnvPrefix namespaces environment overrides, e.g. BLOG_STORAGE_DSN.
const EnvPrefix = "BLOG"

var ErrContentDirRequired = errors.New("blog config: content directory is required")
var ErrStorageDriverUnknown = errors.New("blog config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("blog config: storage dsn is required")
var ErrCacheTTLInvalid = errors.New("blog config: cache ttl must be positive when cache is enabled")
var ErrMarkdownExtensionUnknown = errors.New("blog config: markdown extension is unknown")
var ErrLoggingProviderRequired = errors.New("blog config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("blog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("blog config: logging format is invalid")

// Config is the runtime configuration of the blog CLI.
type Config struct {
	ContentDir string         `mapstructure:"content_dir"`
	Storage    StorageConfig  `mapstructure:"storage"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Markdown   MarkdownConfig `mapstructure:"markdown"`
	Logging    LoggingConfig  `mapstructure:"logging"`
	Ingest     IngestConfig   `mapstructure:"ingest"`
}

// StorageConfig selects the database backing the post store.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Debug logs every query at trace level.
	Debug bool `mapstructure:"debug"`
}

// CacheConfig controls the read-through cache in front of natural key lookups.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// MarkdownConfig mirrors render.MarkdownOptions.
type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
	SafeMode   bool     `mapstructure:"safe_mode"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// IngestConfig tunes how content files are discovered and parsed.
type IngestConfig struct {
	// DefaultAuthors are "Byline <email>" entries applied to posts without authors.
	DefaultAuthors []string `mapstructure:"default_authors"`
	// Patterns override the file name globs used by load-posts.
	Patterns []string `mapstructure:"patterns"`
	// SchemaPath points at a JSON schema replacing the built-in front matter schema.
	SchemaPath string `mapstructure:"schema_path"`
}

// DefaultConfig returns defaults suitable for a local sqlite database.
func DefaultConfig() Config {
	return Config{
		ContentDir: "content",
		Storage: StorageConfig{
			Driver: storage.DriverSQLite,
			DSN:    "file:blog.db?_foreign_keys=on",
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "warn",
			Format:   "console",
		},
	}
}

// MarkdownOptions converts the markdown section into renderer options.
func (cfg Config) MarkdownOptions() render.MarkdownOptions {
	return render.MarkdownOptions{
		Extensions: append([]string(nil), cfg.Markdown.Extensions...),
		HardWraps:  cfg.Markdown.HardWraps,
		SafeMode:   cfg.Markdown.SafeMode,
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return ErrContentDirRequired
	}
	driver := storage.NormalizeDriver(cfg.Storage.Driver)
	if driver != storage.DriverSQLite && driver != storage.DriverPostgres {
		return fmt.Errorf("%w: %s", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if driver == storage.DriverPostgres && strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return ErrCacheTTLInvalid
	}
	for _, name := range cfg.Markdown.Extensions {
		if !render.KnownExtension(name) {
			return fmt.Errorf("%w: %s", ErrMarkdownExtensionUnknown, name)
		}
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Load reads configuration from path (optional), a .env file in the working
// directory and BLOG_ prefixed environment variables, in increasing order of
// precedence over the defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("blog config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("blog config: read %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("blog config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows about, so every field
// gets a default, including empty ones.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("content_dir", cfg.ContentDir)
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.debug", cfg.Storage.Debug)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("markdown.extensions", cfg.Markdown.Extensions)
	v.SetDefault("markdown.hard_wraps", cfg.Markdown.HardWraps)
	v.SetDefault("markdown.safe_mode", cfg.Markdown.SafeMode)
	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
	v.SetDefault("ingest.default_authors", cfg.Ingest.DefaultAuthors)
	v.SetDefault("ingest.patterns", cfg.Ingest.Patterns)
	v.SetDefault("ingest.schema_path", cfg.Ingest.SchemaPath)
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "noop", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty", "text":
		return true
	default:
		return false
	}
}
