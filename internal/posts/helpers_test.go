package posts

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/domain"
)

var testPostID = uuid.MustParse("0185c2a4-3c00-7000-8000-0000000000aa")

func strPtr(value string) *string { return &value }

func sampleMetadata() ParsedPostMetadata {
	return ParsedPostMetadata{
		ID:          testPostID,
		ContentType: domain.ContentTypeMarkdown,
		Title:       "Hello World",
		Slug:        "hello-world",
		Status:      domain.StatusPublished,
		Categories:  []domain.PostCategory{domain.CategoryArticle},
		Tags:        []string{"go", "blog"},
		Description: strPtr("A first post"),
		Keywords:    []string{"golang"},
		CreatedAt:   time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC),
		Additional:  map[string]any{},
	}
}

func sampleAuthors() []ParsedPostAuthor {
	return []ParsedPostAuthor{{Byline: "Jane Doe", Email: "jane@example.com"}}
}

func mustParsedPost(t *testing.T, mutate func(*ParsedPostMetadata), body string, authors []ParsedPostAuthor) *ParsedPost {
	t.Helper()
	meta := sampleMetadata()
	if mutate != nil {
		mutate(&meta)
	}
	parsed, err := NewParsedPost(meta, body, authors)
	if err != nil {
		t.Fatalf("new parsed post: %v", err)
	}
	return parsed
}
