package posts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/domain"
)

// Post is the persisted blog post.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID          uuid.UUID          `bun:",pk,type:uuid"                json:"id"`
	BodyType    domain.ContentType `bun:"body_type,notnull"            json:"body_type"`
	Title       string             `bun:"title,notnull"                json:"title"`
	Slug        string             `bun:"slug,notnull,unique"          json:"slug"`
	Status      domain.PostStatus  `bun:"status,notnull,default:'draft'" json:"status"`
	Categories  []string           `bun:"categories,type:jsonb"        json:"categories,omitempty"`
	Description *string            `bun:"description"                  json:"description,omitempty"`
	Keywords    []string           `bun:"keywords,type:jsonb"          json:"keywords,omitempty"`
	Excerpt     *string            `bun:"excerpt"                      json:"excerpt,omitempty"`
	FeedID      *string            `bun:"feed_id"                      json:"feed_id,omitempty"`
	Metadata    map[string]any     `bun:"metadata,type:jsonb"          json:"metadata,omitempty"`
	Body        string             `bun:"body,notnull"                 json:"body"`
	CreatedAt   time.Time          `bun:"created_at,notnull"           json:"created_at"`
	UpdatedAt   *time.Time         `bun:"updated_at,nullzero"          json:"updated_at,omitempty"`

	// associations are loaded and written explicitly by the repositories
	Tags      []*Tag      `bun:"-" json:"tags,omitempty"`
	Authors   []*Author   `bun:"-" json:"authors,omitempty"`
	ShortURLs []*ShortURL `bun:"-" json:"short_urls,omitempty"`
}

// RenderSource exposes the body for HTML conversion.
func (p *Post) RenderSource() (domain.ContentType, string) {
	if p == nil {
		return "", ""
	}
	return p.BodyType, p.Body
}

// Author is identified by email.
type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID     uuid.UUID `bun:",pk,type:uuid"        json:"id"`
	Byline string    `bun:"byline,notnull"       json:"byline"`
	Email  string    `bun:"email,notnull,unique" json:"email"`
}

// Tag is identified by name.
type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID   uuid.UUID `bun:",pk,type:uuid"       json:"id"`
	Name string    `bun:"name,notnull,unique" json:"name"`
}

// ShortURL maps a short slug onto a target URL. Posts reference short URLs;
// ingestion never creates them.
type ShortURL struct {
	bun.BaseModel `bun:"table:short_urls,alias:su"`

	ID        uuid.UUID  `bun:",pk,type:uuid"        json:"id"`
	Slug      string     `bun:"slug,notnull,unique"  json:"slug"`
	TargetURL string     `bun:"target_url,notnull"   json:"target_url"`
	PostID    *uuid.UUID `bun:"post_id,type:uuid"    json:"post_id,omitempty"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// PostAuthor links posts and authors, keeping declaration order.
type PostAuthor struct {
	bun.BaseModel `bun:"table:post_authors,alias:pa"`

	PostID   uuid.UUID `bun:"post_id,pk,type:uuid"`
	AuthorID uuid.UUID `bun:"author_id,pk,type:uuid"`
	Position int       `bun:"position,notnull"`
}

// PostTag links posts and tags, keeping declaration order.
type PostTag struct {
	bun.BaseModel `bun:"table:post_tags,alias:pt"`

	PostID   uuid.UUID `bun:"post_id,pk,type:uuid"`
	TagID    uuid.UUID `bun:"tag_id,pk,type:uuid"`
	Position int       `bun:"position,notnull"`
}

// Models lists every table owned by this package in creation order.
func Models() []any {
	return []any{
		(*Author)(nil),
		(*Tag)(nil),
		(*Post)(nil),
		(*ShortURL)(nil),
		(*PostAuthor)(nil),
		(*PostTag)(nil),
	}
}

func clonePost(src *Post) *Post {
	if src == nil {
		return nil
	}
	out := *src
	out.Categories = append([]string(nil), src.Categories...)
	out.Keywords = append([]string(nil), src.Keywords...)
	out.Description = cloneString(src.Description)
	out.Excerpt = cloneString(src.Excerpt)
	out.FeedID = cloneString(src.FeedID)
	if src.Metadata != nil {
		out.Metadata = cloneAdditional(src.Metadata)
	}
	if src.UpdatedAt != nil {
		ts := *src.UpdatedAt
		out.UpdatedAt = &ts
	}
	out.Tags = make([]*Tag, 0, len(src.Tags))
	for _, tag := range src.Tags {
		if tag != nil {
			copied := *tag
			out.Tags = append(out.Tags, &copied)
		}
	}
	out.Authors = make([]*Author, 0, len(src.Authors))
	for _, author := range src.Authors {
		if author != nil {
			copied := *author
			out.Authors = append(out.Authors, &copied)
		}
	}
	out.ShortURLs = make([]*ShortURL, 0, len(src.ShortURLs))
	for _, short := range src.ShortURLs {
		if short != nil {
			out.ShortURLs = append(out.ShortURLs, cloneShortURL(short))
		}
	}
	return &out
}

func cloneShortURL(src *ShortURL) *ShortURL {
	if src == nil {
		return nil
	}
	out := *src
	if src.PostID != nil {
		id := *src.PostID
		out.PostID = &id
	}
	return &out
}
