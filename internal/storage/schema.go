package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/posts"
)

type index struct {
	name    string
	model   any
	columns []string
}

var indexes = []index{
	{name: "idx_posts_created_at", model: (*posts.Post)(nil), columns: []string{"created_at"}},
	{name: "idx_short_urls_post_id", model: (*posts.ShortURL)(nil), columns: []string{"post_id"}},
	{name: "idx_post_authors_author_id", model: (*posts.PostAuthor)(nil), columns: []string{"author_id"}},
	{name: "idx_post_tags_tag_id", model: (*posts.PostTag)(nil), columns: []string{"tag_id"}},
}

// EnsureSchema creates the blog tables and secondary indexes when missing.
// Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range posts.Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table for %T: %w", model, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("storage: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
