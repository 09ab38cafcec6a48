package blog

import (
	"context"

	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/render"
)

type (
	// LoadPostCommand ingests a single content file.
	LoadPostCommand = postscmd.LoadPostCommand
	// LoadPostsCommand ingests every content file under a directory.
	LoadPostsCommand = postscmd.LoadPostsCommand
	// PreviewPostCommand renders a content file as HTML.
	PreviewPostCommand = postscmd.PreviewPostCommand
	// AddShortURLCommand registers a short URL posts may reference.
	AddShortURLCommand = postscmd.AddShortURLCommand

	Report    = postscmd.Report
	Action    = postscmd.Action
	FileError = postscmd.FileError

	Post       = posts.Post
	ParsedPost = posts.ParsedPost
	ShortURL   = posts.ShortURL
	Store      = posts.Store

	Converter = render.Converter
)

const (
	ActionCreated   = postscmd.ActionCreated
	ActionUpdated   = postscmd.ActionUpdated
	ActionUnchanged = postscmd.ActionUnchanged
)

// Module is the top level façade over the ingest pipeline.
type Module struct {
	container *di.Container
}

// New constructs a module from cfg and optional DI overrides.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Store exposes the post repositories.
func (m *Module) Store() Store {
	return m.container.Store()
}

// Converter exposes the body to HTML converter.
func (m *Module) Converter() *Converter {
	return m.container.Converter()
}

// LoadPost runs the load-post command.
func (m *Module) LoadPost(ctx context.Context, cmd LoadPostCommand) error {
	return m.container.Handlers().LoadPost.Execute(ctx, cmd)
}

// LoadPosts runs the load-posts command.
func (m *Module) LoadPosts(ctx context.Context, cmd LoadPostsCommand) error {
	return m.container.Handlers().LoadPosts.Execute(ctx, cmd)
}

// Preview runs the preview command; output goes to the configured sink.
func (m *Module) Preview(ctx context.Context, cmd PreviewPostCommand) error {
	return m.container.Handlers().Preview.Execute(ctx, cmd)
}

// AddShortURL registers a short URL.
func (m *Module) AddShortURL(ctx context.Context, cmd AddShortURLCommand) error {
	return m.container.Handlers().AddShortURL.Execute(ctx, cmd)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
