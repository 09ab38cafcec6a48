package di

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	"github.com/goliatone/go-blog/internal/commands/fixtures"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
)

const samplePost = `---
title: Hello World
slug: hello-world
date: 2023-01-02
---
# Hello World!
`

func sqliteConfig(t *testing.T) runtimeconfig.Config {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.ContentDir = "content"
	cfg.Storage.DSN = fmt.Sprintf("file:%s?_fk=1", filepath.Join(t.TempDir(), "blog.sqlite"))
	cfg.Logging.Provider = "noop"
	return cfg
}

func TestNewContainerLoadsIntoSQLite(t *testing.T) {
	ctx := context.Background()
	files := fstest.MapFS{"posts/hello.md": {Data: []byte(samplePost)}}
	var reports []postscmd.Report

	container, err := NewContainer(ctx, sqliteConfig(t),
		WithContentFS(files),
		WithReporter(func(r postscmd.Report) { reports = append(reports, r) }),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if err := container.Handlers().LoadPosts.Execute(ctx, postscmd.LoadPostsCommand{Directory: "posts"}); err != nil {
		t.Fatalf("load posts: %v", err)
	}
	if len(reports) != 1 || reports[0].Action != postscmd.ActionCreated {
		t.Fatalf("unexpected reports %+v", reports)
	}

	stored, err := container.Store().Posts().GetBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if stored.Title != "Hello World" {
		t.Fatalf("unexpected stored post %+v", stored)
	}
}

func TestNewContainerWithCacheAndRegistry(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Second
	reg := fixtures.NewRecordingRegistry()

	container, err := NewContainer(context.Background(), cfg, WithCommandRegistry(reg))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if container.cacheService == nil || container.keySerializer == nil {
		t.Fatal("expected cache defaults when cache is enabled")
	}
	if len(reg.Handlers) != 4 {
		t.Fatalf("expected handlers registered, got %d", len(reg.Handlers))
	}
}

func TestNewContainerUsesGoLoggerProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(context.Background(), cfg, WithStore(posts.NewMemoryStore()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	provider, ok := container.LoggerProvider().(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
	if provider.GetLogger("blog.test") == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
	if err := container.Close(); err != nil {
		t.Fatalf("close without owned db: %v", err)
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "oracle"

	if _, err := NewContainer(context.Background(), cfg); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestNewContainerRejectsBadDefaultAuthors(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "noop"
	cfg.Ingest.DefaultAuthors = []string{"Nobody"}

	if _, err := NewContainer(context.Background(), cfg, WithStore(posts.NewMemoryStore())); err == nil {
		t.Fatal("expected default author without email to fail")
	}
}

func TestNewContainerPreviewSink(t *testing.T) {
	files := fstest.MapFS{"hello.md": {Data: []byte(samplePost)}}
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "noop"
	var html string

	container, err := NewContainer(context.Background(), cfg,
		WithStore(posts.NewMemoryStore()),
		WithContentFS(files),
		WithPreviewSink(func(_ string, out string) { html = out }),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if err := container.Handlers().Preview.Execute(context.Background(), postscmd.PreviewPostCommand{Path: "hello.md"}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if html != "<h1>Hello World!</h1>\n" {
		t.Fatalf("unexpected html %q", html)
	}
}
