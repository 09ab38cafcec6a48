package staticfile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/domain"
	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

//go:embed frontmatter.schema.json
var defaultSchemaDocument []byte

// DefaultSchema returns the JSON schema applied to front matter shapes.
func DefaultSchema() *validation.Schema {
	return validation.MustCompile(defaultSchemaDocument)
}

// recognised front matter keys; everything else ends up in Additional
var knownKeys = map[string]struct{}{
	"id": {}, "date": {}, "updated": {}, "title": {}, "slug": {}, "status": {},
	"categories": {}, "category": {}, "tags": {}, "description": {}, "keywords": {},
	"excerpt": {}, "feedId": {}, "feed_id": {}, "author": {}, "authors": {},
}

// IDFactory derives a post id from its publication date.
type IDFactory func(time.Time) uuid.UUID

// Option configures a Parser.
type Option func(*Parser)

// WithFS replaces the filesystem files are read from. basePath is the host
// directory fsys is rooted at and is used to resolve absolute paths.
func WithFS(fsys fs.FS, basePath string) Option {
	return func(p *Parser) {
		if fsys != nil {
			p.fs = fsys
			p.basePath = filepath.Clean(basePath)
			p.host = false
		}
	}
}

// WithFormats overrides the front matter strategies.
func WithFormats(formats ...*frontmatter.Format) Option {
	return func(p *Parser) {
		if len(formats) > 0 {
			p.formats = formats
		}
	}
}

// WithSchema overrides the front matter schema. A nil schema disables shape
// validation.
func WithSchema(schema *validation.Schema) Option {
	return func(p *Parser) {
		p.schema = schema
	}
}

// WithDefaultAuthors sets the authors assigned to posts that declare none.
func WithDefaultAuthors(authors ...posts.ParsedPostAuthor) Option {
	return func(p *Parser) {
		p.defaultAuthors = append([]posts.ParsedPostAuthor{}, authors...)
	}
}

// WithIDFactory overrides how ids are derived for files without an explicit id.
func WithIDFactory(factory IDFactory) Option {
	return func(p *Parser) {
		if factory != nil {
			p.newID = factory
		}
	}
}

// WithLogger sets the logger used for parse events.
func WithLogger(logger interfaces.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser turns a content file into a posts.ParsedPost.
type Parser struct {
	fs             fs.FS
	basePath       string
	formats        []*frontmatter.Format
	schema         *validation.Schema
	defaultAuthors []posts.ParsedPostAuthor
	newID          IDFactory
	logger         interfaces.Logger
	host           bool
}

// NewParser builds a parser reading from the host filesystem root.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		basePath: string(filepath.Separator),
		formats:  DefaultFormats(),
		schema:   DefaultSchema(),
		newID:    identity.PostUUID,
		logger:   logging.NoOp(),
		host:     true,
	}
	p.fs = os.DirFS(p.basePath)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads path and validates its front matter. Any failure is reported
// before a ParsedPost is built.
func (p *Parser) Parse(ctx context.Context, path string) (*posts.ParsedPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := p.makeRelative(path)
	if err != nil {
		return nil, posts.NewValidationError(path, "path", "Could not find file %s", path)
	}
	info, err := fs.Stat(p.fs, rel)
	if err != nil || info.IsDir() {
		return nil, posts.NewValidationError(path, "path", "Could not find file %s", path)
	}

	ext := filepath.Ext(path)
	contentType, ok := domain.ContentTypeFromExtension(ext)
	if !ok {
		return nil, posts.NewValidationError(path, "path", "File does not have an acceptable extension: %s", ext)
	}

	source, err := fs.ReadFile(p.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	raw, body, err := splitFrontMatter(source, p.formats)
	if err != nil {
		return nil, posts.NewValidationError(path, "frontmatter", "%s", describeFrontMatterError(err))
	}

	meta, authors, err := p.buildMetadata(path, raw)
	if err != nil {
		return nil, err
	}
	meta.ContentType = contentType

	parsed, err := posts.NewParsedPost(meta, string(body), authors)
	if err != nil {
		var vErr *posts.ValidationError
		if errors.As(err, &vErr) {
			vErr.Path = path
		}
		return nil, err
	}

	p.logger.Debug("staticfile.parse.completed", "path", path, "post_id", meta.ID, "format", contentType)
	return parsed, nil
}

func (p *Parser) buildMetadata(path string, raw map[string]any) (posts.ParsedPostMetadata, []posts.ParsedPostAuthor, error) {
	var meta posts.ParsedPostMetadata
	invalid := func(field, format string, args ...any) error {
		return posts.NewValidationError(path, field, format, args...)
	}

	createdAt, ok := parseDate(raw["date"])
	if !ok {
		return meta, nil, invalid("date", "Posts must have a valid date")
	}
	meta.CreatedAt = createdAt

	if value, present := raw["updated"]; present && value != nil {
		updatedAt, ok := parseDate(value)
		if !ok {
			return meta, nil, invalid("updated", "When provided, updated must be a valid date")
		}
		meta.UpdatedAt = &updatedAt
	}

	title, _ := scalarString(raw["title"])
	if title == "" {
		return meta, nil, invalid("title", "Posts must have a title")
	}
	meta.Title = title

	postSlug, _ := scalarString(raw["slug"])
	if postSlug == "" {
		return meta, nil, invalid("slug", "Posts must have a slug")
	}
	if !slug.IsValid(postSlug) {
		return meta, nil, invalid("slug", "Posts must have a URL-safe slug")
	}
	meta.Slug = postSlug

	if err := p.schema.Validate(raw); err != nil {
		issues := validation.Issues(err)
		message := err.Error()
		if len(issues) > 0 {
			message = issues[0].String()
		}
		return meta, nil, invalid("frontmatter", "Invalid front matter %s", message)
	}

	if value, present := raw["id"]; present && value != nil {
		str, _ := scalarString(value)
		id, err := uuid.Parse(str)
		if err != nil || id == uuid.Nil {
			return meta, nil, invalid("id", "Invalid id %v", value)
		}
		meta.ID = id
	} else {
		meta.ID = p.newID(createdAt)
	}

	statusValue, _ := scalarString(raw["status"])
	status, err := domain.ParsePostStatus(statusValue)
	if err != nil {
		return meta, nil, invalid("status", "Invalid status %s", statusValue)
	}
	meta.Status = status

	categoryValues := stringList(raw["categories"])
	if _, ok := raw["categories"]; !ok {
		categoryValues = stringList(raw["category"])
	}
	meta.Categories = make([]domain.PostCategory, 0, len(categoryValues))
	for _, value := range categoryValues {
		category, err := domain.ParsePostCategory(value)
		if err != nil {
			return meta, nil, invalid("categories", "Invalid category %s", value)
		}
		meta.Categories = append(meta.Categories, category)
	}

	meta.Tags = stringList(raw["tags"])
	meta.Keywords = stringList(raw["keywords"])
	meta.Description = optionalString(raw["description"])
	meta.Excerpt = optionalString(raw["excerpt"])
	if value, ok := raw["feedId"]; ok {
		meta.FeedID = optionalString(value)
	} else {
		meta.FeedID = optionalString(raw["feed_id"])
	}

	authorValue, ok := raw["authors"]
	if !ok {
		authorValue = raw["author"]
	}
	authors, err := parseAuthors(authorValue)
	if err != nil {
		return meta, nil, invalid("authors", "Authors must have an email")
	}
	if len(authors) == 0 {
		authors = append(authors, p.defaultAuthors...)
	}

	meta.Additional = make(map[string]any)
	for key, value := range raw {
		if _, known := knownKeys[key]; !known {
			meta.Additional[key] = value
		}
	}

	return meta, authors, nil
}

func (p *Parser) makeRelative(path string) (string, error) {
	if p.host {
		return hostRelativePath(p.basePath, path)
	}
	return relativePath(p.basePath, path)
}
