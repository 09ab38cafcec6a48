package postscmd

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-slug"
)

const (
	loadPostMessageType    = "blog.posts.load_post"
	loadPostsMessageType   = "blog.posts.load_posts"
	previewPostMessageType = "blog.posts.preview_post"
	addShortURLMessageType = "blog.posts.add_short_url"
)

// LoadPostCommand ingests a single content file.
type LoadPostCommand struct {
	// Path is the content file to load, relative or absolute.
	Path string `json:"path"`
	// Force overwrites an existing post without asking.
	Force bool `json:"force,omitempty"`
	// DryRun parses and reconciles without saving.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (LoadPostCommand) Type() string { return loadPostMessageType }

// Validate ensures a path is present before handlers execute.
func (cmd LoadPostCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("blog.posts.load_post.path_required", "path is required"))),
	)
}

// LoadPostsCommand ingests every content file found under Directory, in
// lexicographic path order.
type LoadPostsCommand struct {
	Directory string `json:"directory"`
	Force     bool   `json:"force,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (LoadPostsCommand) Type() string { return loadPostsMessageType }

// Validate ensures a directory is present before handlers execute.
func (cmd LoadPostsCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(notBlank("blog.posts.load_posts.directory_required", "directory is required"))),
	)
}

// PreviewPostCommand parses a content file and renders its body as HTML
// without touching the store.
type PreviewPostCommand struct {
	Path string `json:"path"`
}

// Type implements command.Message.
func (PreviewPostCommand) Type() string { return previewPostMessageType }

func (cmd PreviewPostCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(notBlank("blog.posts.preview_post.path_required", "path is required"))),
	)
}

// AddShortURLCommand registers a short URL that posts may reference from
// their front matter.
type AddShortURLCommand struct {
	Slug      string `json:"slug"`
	TargetURL string `json:"target_url"`
}

// Type implements command.Message.
func (AddShortURLCommand) Type() string { return addShortURLMessageType }

// Validate requires a URL-safe slug and an absolute target URL.
func (cmd AddShortURLCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Slug, validation.Required, validation.By(func(value any) error {
			if !slug.IsValid(strings.TrimSpace(value.(string))) {
				return validation.NewError("blog.posts.add_short_url.slug_invalid", "slug must be URL-safe")
			}
			return nil
		})),
		validation.Field(&cmd.TargetURL, validation.Required, validation.By(func(value any) error {
			parsed, err := url.Parse(strings.TrimSpace(value.(string)))
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return validation.NewError("blog.posts.add_short_url.target_invalid", "target must be an absolute URL")
			}
			return nil
		})),
	)
}

func notBlank(code, message string) validation.RuleFunc {
	return func(value any) error {
		if strings.TrimSpace(value.(string)) == "" {
			return validation.NewError(code, message)
		}
		return nil
	}
}
