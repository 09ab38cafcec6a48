package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/posts"
)

// Options captures what the CLI needs to build a module.
type Options struct {
	ConfigPath string
	// LogLevel overrides the configured level when set.
	LogLevel string
	In       io.Reader
	Out      io.Writer
	// Interactive enables prompts; otherwise every prompt is declined.
	Interactive bool
	// Extra is appended to the DI options, mostly for tests.
	Extra []di.Option
}

// BuildModule loads configuration and wires a module whose reports, previews
// and prompts go through the supplied streams.
func BuildModule(ctx context.Context, opts Options) (*blog.Module, error) {
	cfg, err := blog.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	prompter := NewPrompter(opts.In, out, opts.Interactive)

	diOpts := []di.Option{
		di.WithReporter(func(r blog.Report) {
			fmt.Fprintln(out, r.String())
		}),
		di.WithPreviewSink(func(_ string, html string) {
			fmt.Fprint(out, html)
		}),
		di.WithConfirmer(prompter.ConfirmOverwrite),
		di.WithSlugChangeConfirmer(prompter.ConfirmSlugChange),
		di.WithBylineConfirmer(prompter.ConfirmByline),
	}
	diOpts = append(diOpts, opts.Extra...)

	module, err := blog.New(ctx, cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}
	return module, nil
}

// Prompter asks yes/no questions on the terminal.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewPrompter(in io.Reader, out io.Writer, interactive bool) *Prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// ConfirmOverwrite asks before replacing a stored post that changed on disk.
func (p *Prompter) ConfirmOverwrite(ctx context.Context, existing *posts.Post, parsed *posts.ParsedPost) (bool, error) {
	return p.ask(ctx, fmt.Sprintf("Post %s (%s) has changed. Overwrite? [y/N] ", existing.ID, parsed.Title()))
}

// ConfirmSlugChange asks before moving a stored post to a different slug.
func (p *Prompter) ConfirmSlugChange(ctx context.Context, existing *posts.Post, parsed *posts.ParsedPost) (bool, error) {
	return p.ask(ctx, fmt.Sprintf("Post %s is stored as %q but the file uses slug %q. Replace it? [y/N] ", existing.ID, existing.Slug, parsed.Slug()))
}

// ConfirmByline asks before replacing the stored byline of an author.
func (p *Prompter) ConfirmByline(ctx context.Context, author *posts.Author, byline string) (bool, error) {
	return p.ask(ctx, fmt.Sprintf("Author %s has byline %q. Replace with %q? [y/N] ", author.Email, author.Byline, byline))
}

func (p *Prompter) ask(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !p.interactive {
		return false, nil
	}
	fmt.Fprint(p.out, question)
	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
