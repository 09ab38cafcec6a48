package posts

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/domain"
)

// ParsedPostMetadata is the front matter of a content file after defaults
// have been applied.
type ParsedPostMetadata struct {
	ID          uuid.UUID
	ContentType domain.ContentType
	Title       string
	Slug        string
	Status      domain.PostStatus
	Categories  []domain.PostCategory
	Tags        []string
	Description *string
	Keywords    []string
	Excerpt     *string
	FeedID      *string
	Additional  map[string]any
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ParsedPostAuthor identifies an author by email. The byline is only used
// when the author does not exist yet.
type ParsedPostAuthor struct {
	Byline string
	Email  string
}

// ParsedPost is the intermediate representation of a single content file.
// Values are copied on the way in and on the way out.
type ParsedPost struct {
	metadata ParsedPostMetadata
	content  string
	authors  []ParsedPostAuthor
}

// NewParsedPost validates the invariants shared by every parsed post and
// returns an immutable value.
func NewParsedPost(meta ParsedPostMetadata, content string, authors []ParsedPostAuthor) (*ParsedPost, error) {
	if meta.CreatedAt.IsZero() {
		return nil, NewValidationError("", "date", "Posts must have a valid date")
	}
	meta.Title = strings.TrimSpace(meta.Title)
	if meta.Title == "" {
		return nil, NewValidationError("", "title", "Posts must have a title")
	}
	meta.Slug = strings.TrimSpace(meta.Slug)
	if meta.Slug == "" {
		return nil, NewValidationError("", "slug", "Posts must have a slug")
	}
	if meta.Status == "" {
		meta.Status = domain.StatusDraft
	}
	if meta.ContentType == "" {
		meta.ContentType = domain.ContentTypeMarkdown
	}

	return &ParsedPost{
		metadata: cloneMetadata(meta),
		content:  content,
		authors:  append([]ParsedPostAuthor{}, authors...),
	}, nil
}

// Metadata returns a copy of the post metadata.
func (p *ParsedPost) Metadata() ParsedPostMetadata {
	if p == nil {
		return ParsedPostMetadata{}
	}
	return cloneMetadata(p.metadata)
}

// Content returns the body with the front matter stripped.
func (p *ParsedPost) Content() string {
	if p == nil {
		return ""
	}
	return p.content
}

// Authors returns a copy of the authors in declaration order.
func (p *ParsedPost) Authors() []ParsedPostAuthor {
	if p == nil {
		return nil
	}
	return append([]ParsedPostAuthor{}, p.authors...)
}

func (p *ParsedPost) ID() uuid.UUID {
	if p == nil {
		return uuid.Nil
	}
	return p.metadata.ID
}

func (p *ParsedPost) Title() string {
	if p == nil {
		return ""
	}
	return p.metadata.Title
}

func (p *ParsedPost) Slug() string {
	if p == nil {
		return ""
	}
	return p.metadata.Slug
}

// RenderSource exposes the body for HTML conversion.
func (p *ParsedPost) RenderSource() (domain.ContentType, string) {
	if p == nil {
		return "", ""
	}
	return p.metadata.ContentType, p.content
}

// ShortURLReference returns the raw additional.shorturl value, if any.
func (p *ParsedPost) ShortURLReference() (string, bool) {
	if p == nil {
		return "", false
	}
	raw, ok := p.metadata.Additional[ShortURLKey]
	if !ok || raw == nil {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// ShortURLKey is the additional metadata key naming a post's short URL.
const ShortURLKey = "shorturl"

func cloneMetadata(meta ParsedPostMetadata) ParsedPostMetadata {
	out := meta
	out.Categories = append([]domain.PostCategory{}, meta.Categories...)
	out.Tags = append([]string{}, meta.Tags...)
	out.Keywords = append([]string{}, meta.Keywords...)
	out.Description = cloneString(meta.Description)
	out.Excerpt = cloneString(meta.Excerpt)
	out.FeedID = cloneString(meta.FeedID)
	out.Additional = cloneAdditional(meta.Additional)
	if meta.UpdatedAt != nil {
		ts := *meta.UpdatedAt
		out.UpdatedAt = &ts
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneAdditional(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	maps.Copy(out, src)
	return out
}
