package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/storage"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverSQLite || cfg.Cache.Enabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate_RequiresContentDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.ContentDir = " "

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrContentDirRequired) {
		t.Fatalf("expected ErrContentDirRequired, got %v", err)
	}
}

func TestConfigValidate_Storage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mysql"
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}

	cfg.Storage.Driver = "postgresql"
	cfg.Storage.DSN = ""
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestConfigValidate_CacheTTL(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = 0

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrCacheTTLInvalid) {
		t.Fatalf("expected ErrCacheTTLInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownMarkdownExtension(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Extensions = []string{"gfm", "emoji"}

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrMarkdownExtensionUnknown) {
		t.Fatalf("expected ErrMarkdownExtensionUnknown, got %v", err)
	}
}

func TestConfigValidate_Logging(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.LoggingConfig)
		want   error
	}{
		{"provider required", func(l *runtimeconfig.LoggingConfig) { l.Provider = "" }, runtimeconfig.ErrLoggingProviderRequired},
		{"unknown provider", func(l *runtimeconfig.LoggingConfig) { l.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"invalid level", func(l *runtimeconfig.LoggingConfig) { l.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"invalid format", func(l *runtimeconfig.LoggingConfig) { l.Format = "xml" }, runtimeconfig.ErrLoggingFormatInvalid},
	}
	for _, tc := range cases {
		cfg := runtimeconfig.DefaultConfig()
		tc.mutate(&cfg.Logging)
		if err := cfg.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestLoadReadsFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.yaml")
	content := []byte(`content_dir: site/posts
storage:
  driver: sqlite
  dsn: file:test.db
cache:
  enabled: true
  ttl: 30s
markdown:
  extensions: [gfm, footnote]
  safe_mode: true
ingest:
  default_authors:
    - Jane Doe <jane@example.com>
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BLOG_LOGGING_LEVEL", "debug")
	t.Setenv("BLOG_STORAGE_DEBUG", "true")

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ContentDir != "site/posts" || cfg.Storage.DSN != "file:test.db" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 30*time.Second {
		t.Fatalf("unexpected cache config %+v", cfg.Cache)
	}
	if len(cfg.Markdown.Extensions) != 2 || !cfg.MarkdownOptions().SafeMode {
		t.Fatalf("unexpected markdown config %+v", cfg.Markdown)
	}
	if len(cfg.Ingest.DefaultAuthors) != 1 {
		t.Fatalf("expected default author, got %v", cfg.Ingest.DefaultAuthors)
	}
	if cfg.Logging.Level != "debug" || !cfg.Storage.Debug {
		t.Fatalf("expected environment overrides, got %+v %+v", cfg.Logging, cfg.Storage)
	}
	if cfg.Logging.Provider != "gologger" {
		t.Fatalf("expected default provider to survive, got %q", cfg.Logging.Provider)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("BLOG_CONTENT_DIR", "posts")

	cfg, err := runtimeconfig.Load("")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ContentDir != "posts" || cfg.Storage.Driver != storage.DriverSQLite {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("BLOG_STORAGE_DRIVER", "oracle")

	if _, err := runtimeconfig.Load(""); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
