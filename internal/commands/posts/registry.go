package postscmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the handlers built by RegisterPostCommands.
type HandlerSet struct {
	LoadPost    *LoadPostHandler
	LoadPosts   *LoadPostsHandler
	Preview     *PreviewPostHandler
	AddShortURL *AddShortURLHandler
}

// Dependencies are the collaborators shared by the post handlers.
type Dependencies struct {
	Ingester  *Ingester
	Parser    Parser
	Converter *render.Converter
	Preview   PreviewSink
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	loadPostOpts  []commands.HandlerOption[LoadPostCommand]
	loadPostsOpts []commands.HandlerOption[LoadPostsCommand]
}

// WithLoadPostHandlerOptions forwards options to the LoadPostHandler constructor.
func WithLoadPostHandlerOptions(opts ...commands.HandlerOption[LoadPostCommand]) Option {
	return func(cfg *options) {
		cfg.loadPostOpts = append(cfg.loadPostOpts, opts...)
	}
}

// WithLoadPostsHandlerOptions forwards options to the LoadPostsHandler constructor.
func WithLoadPostsHandlerOptions(opts ...commands.HandlerOption[LoadPostsCommand]) Option {
	return func(cfg *options) {
		cfg.loadPostsOpts = append(cfg.loadPostsOpts, opts...)
	}
}

// RegisterPostCommands builds the post handlers and registers them with reg
// when it is not nil.
func RegisterPostCommands(reg CommandRegistry, deps Dependencies, provider interfaces.LoggerProvider, opts ...Option) (*HandlerSet, error) {
	if deps.Ingester == nil {
		return nil, errors.New("posts command registration: ingester is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "posts")
	set := &HandlerSet{
		LoadPost:    NewLoadPostHandler(deps.Ingester, logger, cfg.loadPostOpts...),
		LoadPosts:   NewLoadPostsHandler(deps.Ingester, logger, cfg.loadPostsOpts...),
		Preview:     NewPreviewPostHandler(deps.Parser, deps.Converter, deps.Preview, logger),
		AddShortURL: NewAddShortURLHandler(deps.Ingester, logger),
	}

	if reg != nil {
		for _, handler := range []any{set.LoadPost, set.LoadPosts, set.Preview, set.AddShortURL} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterLoadPostsCron schedules periodic directory loads. Scheduled runs
// should set Force since nobody is there to answer prompts.
func RegisterLoadPostsCron(reg CronRegistrar, handler *LoadPostsHandler, cfg command.HandlerConfig, msg LoadPostsCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}
