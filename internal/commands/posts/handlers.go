package postscmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	loadPostOperation    = "posts.load_post"
	loadPostsOperation   = "posts.load_posts"
	previewOperation     = "posts.preview_post"
	addShortURLOperation = "posts.add_short_url"
)

var (
	_ command.Commander[LoadPostCommand]    = (*LoadPostHandler)(nil)
	_ command.Commander[LoadPostsCommand]   = (*LoadPostsHandler)(nil)
	_ command.Commander[PreviewPostCommand] = (*PreviewPostHandler)(nil)
	_ command.Commander[AddShortURLCommand] = (*AddShortURLHandler)(nil)
)

// LoadPostHandler ingests one file through the shared command handler.
type LoadPostHandler struct {
	inner *commands.Handler[LoadPostCommand]
}

// NewLoadPostHandler creates a handler bound to the supplied ingester.
func NewLoadPostHandler(ingester *Ingester, logger interfaces.Logger, opts ...commands.HandlerOption[LoadPostCommand]) *LoadPostHandler {
	baseLogger := orNoOp(logger)

	exec := func(ctx context.Context, msg LoadPostCommand) error {
		_, err := ingester.LoadPost(ctx, msg.Path, msg.Force, msg.DryRun)
		return err
	}

	handlerOpts := []commands.HandlerOption[LoadPostCommand]{
		commands.WithLogger[LoadPostCommand](baseLogger),
		commands.WithOperation[LoadPostCommand](loadPostOperation),
		commands.WithMessageFields(func(msg LoadPostCommand) map[string]any {
			return flagFields(map[string]any{"path": msg.Path}, msg.Force, msg.DryRun)
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LoadPostCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LoadPostHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[LoadPostCommand].
func (h *LoadPostHandler) Execute(ctx context.Context, msg LoadPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// LoadPostsHandler ingests a directory, stopping at the first failing file.
type LoadPostsHandler struct {
	inner *commands.Handler[LoadPostsCommand]
}

func NewLoadPostsHandler(ingester *Ingester, logger interfaces.Logger, opts ...commands.HandlerOption[LoadPostsCommand]) *LoadPostsHandler {
	baseLogger := orNoOp(logger)

	exec := func(ctx context.Context, msg LoadPostsCommand) error {
		reports, err := ingester.LoadPosts(ctx, msg.Directory, msg.Force, msg.DryRun)
		counts := map[Action]int{}
		for _, report := range reports {
			counts[report.Action]++
		}
		logging.WithFields(baseLogger, map[string]any{
			"created_count":   counts[ActionCreated],
			"updated_count":   counts[ActionUpdated],
			"unchanged_count": counts[ActionUnchanged],
			"dry_run":         msg.DryRun,
		}).Info("posts.command.load_posts.completed")
		return err
	}

	handlerOpts := []commands.HandlerOption[LoadPostsCommand]{
		commands.WithLogger[LoadPostsCommand](baseLogger),
		commands.WithOperation[LoadPostsCommand](loadPostsOperation),
		commands.WithMessageFields(func(msg LoadPostsCommand) map[string]any {
			return flagFields(map[string]any{"directory": msg.Directory}, msg.Force, msg.DryRun)
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LoadPostsCommand](baseLogger)),
		// batches can be large; cancellation comes from the caller
		commands.WithTimeout[LoadPostsCommand](0),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LoadPostsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[LoadPostsCommand].
func (h *LoadPostsHandler) Execute(ctx context.Context, msg LoadPostsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PreviewSink receives the rendered HTML of a previewed post.
type PreviewSink func(path, html string)

// PreviewPostHandler renders a content file without persisting it.
type PreviewPostHandler struct {
	inner *commands.Handler[PreviewPostCommand]
}

func NewPreviewPostHandler(parser Parser, converter *render.Converter, sink PreviewSink, logger interfaces.Logger, opts ...commands.HandlerOption[PreviewPostCommand]) *PreviewPostHandler {
	baseLogger := orNoOp(logger)
	if sink == nil {
		sink = func(string, string) {}
	}

	exec := func(ctx context.Context, msg PreviewPostCommand) error {
		if parser == nil || converter == nil {
			return errors.New("preview: parser and converter are required")
		}
		parsed, err := parser.Parse(ctx, msg.Path)
		if err != nil {
			return &FileError{Path: msg.Path, Err: err}
		}
		html, err := converter.Convert(parsed)
		if err != nil {
			return &FileError{Path: msg.Path, Err: err}
		}
		sink(msg.Path, html)
		return nil
	}

	handlerOpts := []commands.HandlerOption[PreviewPostCommand]{
		commands.WithLogger[PreviewPostCommand](baseLogger),
		commands.WithOperation[PreviewPostCommand](previewOperation),
		commands.WithMessageFields(func(msg PreviewPostCommand) map[string]any {
			return map[string]any{"path": msg.Path}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PreviewPostHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PreviewPostCommand].
func (h *PreviewPostHandler) Execute(ctx context.Context, msg PreviewPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// AddShortURLHandler registers short URLs referenced by posts.
type AddShortURLHandler struct {
	inner *commands.Handler[AddShortURLCommand]
}

func NewAddShortURLHandler(ingester *Ingester, logger interfaces.Logger, opts ...commands.HandlerOption[AddShortURLCommand]) *AddShortURLHandler {
	baseLogger := orNoOp(logger)

	exec := func(ctx context.Context, msg AddShortURLCommand) error {
		short, err := ingester.AddShortURL(ctx, msg.Slug, msg.TargetURL)
		if err != nil {
			return err
		}
		baseLogger.Info("posts.command.short_url.created", "short_url_id", short.ID, "slug", short.Slug)
		return nil
	}

	handlerOpts := []commands.HandlerOption[AddShortURLCommand]{
		commands.WithLogger[AddShortURLCommand](baseLogger),
		commands.WithOperation[AddShortURLCommand](addShortURLOperation),
		commands.WithMessageFields(func(msg AddShortURLCommand) map[string]any {
			return map[string]any{"slug": msg.Slug, "target_url": msg.TargetURL}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[AddShortURLCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &AddShortURLHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[AddShortURLCommand].
func (h *AddShortURLHandler) Execute(ctx context.Context, msg AddShortURLCommand) error {
	return h.inner.Execute(ctx, msg)
}

func flagFields(fields map[string]any, force, dryRun bool) map[string]any {
	if force {
		fields["force"] = true
	}
	if dryRun {
		fields["dry_run"] = true
	}
	return fields
}

func orNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
