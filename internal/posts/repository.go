package posts

import (
	"context"

	"github.com/google/uuid"
)

// PostRepository persists posts together with their associations.
type PostRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
	// Save writes the post, any new authors and tags, join rows and short
	// URL links as one unit.
	Save(ctx context.Context, post *Post) error
}

// AuthorRepository resolves authors by email.
type AuthorRepository interface {
	GetByEmail(ctx context.Context, email string) (*Author, error)
}

// TagRepository resolves tags by name.
type TagRepository interface {
	GetByName(ctx context.Context, name string) (*Tag, error)
}

// ShortURLRepository resolves and registers short URLs.
type ShortURLRepository interface {
	GetBySlug(ctx context.Context, slug string) (*ShortURL, error)
	Create(ctx context.Context, short *ShortURL) (*ShortURL, error)
	List(ctx context.Context) ([]*ShortURL, error)
}

// Store bundles the repositories a manager and the ingest commands need.
type Store interface {
	Posts() PostRepository
	Authors() AuthorRepository
	Tags() TagRepository
	ShortURLs() ShortURLRepository
}
