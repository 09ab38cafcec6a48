package posts

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// BylineConfirmer decides whether the byline of an existing author should be
// replaced by the one found in a content file. Returning false keeps the
// stored byline.
type BylineConfirmer func(ctx context.Context, author *Author, byline string) (bool, error)

type keepBylinesKey struct{}

// KeepStoredBylines marks ctx so reconciliation keeps every stored byline
// without consulting the BylineConfirmer. Dry runs use it.
func KeepStoredBylines(ctx context.Context) context.Context {
	return context.WithValue(ctx, keepBylinesKey{}, true)
}

func keepStoredBylines(ctx context.Context) bool {
	keep, _ := ctx.Value(keepBylinesKey{}).(bool)
	return keep
}

// ManagerOption configures the manager at construction time.
type ManagerOption func(*Manager)

// WithClock overrides the clock used to stamp updates.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithBylineConfirmer installs the hook consulted when a stored author's
// byline differs from the parsed one.
func WithBylineConfirmer(confirm BylineConfirmer) ManagerOption {
	return func(m *Manager) {
		if confirm != nil {
			m.confirmByline = confirm
		}
	}
}

// WithManagerLogger sets the logger used for reconciliation events.
func WithManagerLogger(logger interfaces.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager maps parsed posts onto persisted ones. It resolves authors, tags
// and short URLs but never writes; callers persist through PostRepository.
type Manager struct {
	authors       AuthorRepository
	tags          TagRepository
	shortURLs     ShortURLRepository
	now           func() time.Time
	confirmByline BylineConfirmer
	logger        interfaces.Logger
}

// NewManager wires the natural key repositories used during reconciliation.
func NewManager(authors AuthorRepository, tags TagRepository, shortURLs ShortURLRepository, opts ...ManagerOption) (*Manager, error) {
	if authors == nil || tags == nil || shortURLs == nil {
		return nil, ErrRepositoryRequired
	}
	m := &Manager{
		authors:   authors,
		tags:      tags,
		shortURLs: shortURLs,
		now:       time.Now,
		confirmByline: func(context.Context, *Author, string) (bool, error) {
			return false, nil
		},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type associations struct {
	authors   []*Author
	tags      []*Tag
	shortURLs []*ShortURL
}

// CreateFromParsedPost builds a new post. The id is copied verbatim from the
// parsed metadata and UpdatedAt stays nil.
func (m *Manager) CreateFromParsedPost(ctx context.Context, parsed *ParsedPost) (*Post, error) {
	if parsed == nil {
		return nil, ErrInvalidArgument
	}
	assoc, err := m.resolve(ctx, parsed)
	if err != nil {
		return nil, err
	}

	meta := parsed.Metadata()
	post := &Post{ID: meta.ID}
	apply(post, parsed, assoc)
	post.UpdatedAt = nil

	m.logger.Debug("posts.manager.created", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

// UpdateFromParsedPost overwrites every content field of existing. Fields
// missing from the new front matter are reset, not merged.
func (m *Manager) UpdateFromParsedPost(ctx context.Context, existing *Post, parsed *ParsedPost) (*Post, error) {
	if existing == nil || parsed == nil {
		return nil, ErrInvalidArgument
	}
	meta := parsed.Metadata()
	if existing.ID != meta.ID {
		return nil, fmt.Errorf("%w: %s != %s", ErrIDMismatch, meta.ID, existing.ID)
	}

	assoc, err := m.resolve(ctx, parsed)
	if err != nil {
		return nil, err
	}

	apply(existing, parsed, assoc)

	updatedAt := m.now().UTC()
	if meta.UpdatedAt != nil {
		updatedAt = meta.UpdatedAt.UTC()
	}
	existing.UpdatedAt = &updatedAt

	m.logger.Debug("posts.manager.updated", "post_id", existing.ID, "slug", existing.Slug)
	return existing, nil
}

// resolve looks up every referenced entity before anything is built, so a
// missing short URL leaves no partial state behind.
func (m *Manager) resolve(ctx context.Context, parsed *ParsedPost) (associations, error) {
	var assoc associations

	if ref, ok := parsed.ShortURLReference(); ok {
		short, err := m.resolveShortURL(ctx, ref)
		if err != nil {
			return associations{}, err
		}
		assoc.shortURLs = []*ShortURL{short}
	}

	authors, err := m.resolveAuthors(ctx, parsed.Authors())
	if err != nil {
		return associations{}, err
	}
	assoc.authors = authors

	tags, err := m.resolveTags(ctx, parsed.Metadata().Tags)
	if err != nil {
		return associations{}, err
	}
	assoc.tags = tags

	return assoc, nil
}

func (m *Manager) resolveShortURL(ctx context.Context, reference string) (*ShortURL, error) {
	slug := ShortURLSlug(reference)
	if slug == "" {
		return nil, shortURLNotFound(reference)
	}
	short, err := m.shortURLs.GetBySlug(ctx, slug)
	if err != nil {
		if IsNotFound(err) {
			return nil, shortURLNotFound(reference)
		}
		return nil, fmt.Errorf("resolve short url %q: %w", slug, err)
	}
	return short, nil
}

func (m *Manager) resolveAuthors(ctx context.Context, parsed []ParsedPostAuthor) ([]*Author, error) {
	out := make([]*Author, 0, len(parsed))
	seen := make(map[string]struct{}, len(parsed))

	for _, candidate := range parsed {
		email := normalizeEmail(candidate.Email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		byline := strings.TrimSpace(candidate.Byline)

		existing, err := m.authors.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if byline != "" && existing.Byline != byline && !keepStoredBylines(ctx) {
				replace, err := m.confirmByline(ctx, existing, byline)
				if err != nil {
					return nil, err
				}
				if replace {
					m.logger.Info("posts.manager.byline_replaced", "email", email, "from", existing.Byline, "to", byline)
					existing.Byline = byline
				}
			}
			out = append(out, existing)
		case IsNotFound(err):
			if byline == "" {
				byline = email
			}
			out = append(out, &Author{
				ID:     identity.AuthorUUID(email),
				Byline: byline,
				Email:  email,
			})
		default:
			return nil, fmt.Errorf("resolve author %q: %w", email, err)
		}
	}
	return out, nil
}

func (m *Manager) resolveTags(ctx context.Context, names []string) ([]*Tag, error) {
	out := make([]*Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		existing, err := m.tags.GetByName(ctx, name)
		switch {
		case err == nil:
			out = append(out, existing)
		case IsNotFound(err):
			out = append(out, &Tag{ID: identity.TagUUID(name), Name: name})
		default:
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
	}
	return out, nil
}

func apply(post *Post, parsed *ParsedPost, assoc associations) {
	meta := parsed.Metadata()

	post.BodyType = meta.ContentType
	post.Title = meta.Title
	post.Slug = meta.Slug
	post.Status = meta.Status
	post.Description = meta.Description
	post.Keywords = meta.Keywords
	post.Excerpt = meta.Excerpt
	post.FeedID = meta.FeedID
	post.Body = parsed.Content()
	post.CreatedAt = meta.CreatedAt.UTC()

	post.Categories = make([]string, 0, len(meta.Categories))
	seen := make(map[string]struct{}, len(meta.Categories))
	for _, cat := range meta.Categories {
		if _, ok := seen[string(cat)]; ok {
			continue
		}
		seen[string(cat)] = struct{}{}
		post.Categories = append(post.Categories, string(cat))
	}

	post.Metadata = nil
	if len(meta.Additional) > 0 {
		post.Metadata = meta.Additional
	}

	post.Authors = assoc.authors
	post.Tags = assoc.tags
	post.ShortURLs = assoc.shortURLs
}

// ShortURLSlug extracts the slug from a short URL reference, which is either
// a bare slug or a URL whose last path segment is the slug.
func ShortURLSlug(reference string) string {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return ""
	}
	if parsed, err := url.Parse(reference); err == nil && (parsed.Scheme != "" || parsed.Host != "") {
		reference = parsed.Path
	} else if idx := strings.IndexAny(reference, "?#"); idx >= 0 {
		reference = reference[:idx]
	}
	reference = strings.Trim(reference, "/")
	if reference == "" {
		return ""
	}
	return path.Base(reference)
}
