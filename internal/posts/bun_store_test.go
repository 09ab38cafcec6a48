package posts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-blog/internal/domain"
	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/storage"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func parsedFixture(t *testing.T, body string, tags []string, additional map[string]any) *posts.ParsedPost {
	t.Helper()
	description := "Round trip"
	parsed, err := posts.NewParsedPost(posts.ParsedPostMetadata{
		ID:          identity.PostUUID(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)),
		ContentType: domain.ContentTypeMarkdown,
		Title:       "Bun Post",
		Slug:        "bun-post",
		Status:      domain.StatusPublished,
		Categories:  []domain.PostCategory{domain.CategoryArticle},
		Tags:        tags,
		Description: &description,
		Keywords:    []string{"bun", "sqlite"},
		Additional:  additional,
		CreatedAt:   time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}, body, []posts.ParsedPostAuthor{
		{Byline: "Jane Doe", Email: "jane@example.com"},
		{Byline: "John Roe", Email: "john@example.com"},
	})
	if err != nil {
		t.Fatalf("parsed post: %v", err)
	}
	return parsed
}

func TestBunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := posts.NewBunStore(newBunDB(t))

	short := &posts.ShortURL{ID: identity.ShortURLUUID("bp"), Slug: "bp", TargetURL: "https://example.com/bun-post"}
	if _, err := store.ShortURLs().Create(ctx, short); err != nil {
		t.Fatalf("create short url: %v", err)
	}
	if _, err := store.ShortURLs().Create(ctx, short); !errors.Is(err, posts.ErrShortURLExists) {
		t.Fatalf("expected duplicate short url to be rejected, got %v", err)
	}

	manager, err := posts.NewManager(store.Authors(), store.Tags(), store.ShortURLs())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	parsed := parsedFixture(t, "# Bun", []string{"go", "bun"}, map[string]any{posts.ShortURLKey: "bp", "layout": "wide"})
	post, err := manager.CreateFromParsedPost(ctx, parsed)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Posts().Save(ctx, post); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Posts().GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !posts.NewContentHashFromPost(loaded).Equals(posts.NewContentHashFromParsedPost(parsed)) {
		t.Fatalf("expected loaded post to hash like its source")
	}
	if len(loaded.Authors) != 2 || loaded.Authors[0].Email != "jane@example.com" || loaded.Authors[1].Email != "john@example.com" {
		t.Fatalf("expected authors in declaration order, got %+v", loaded.Authors)
	}
	if len(loaded.Tags) != 2 || loaded.Tags[0].Name != "go" || loaded.Tags[1].Name != "bun" {
		t.Fatalf("expected tags in declaration order, got %+v", loaded.Tags)
	}
	if len(loaded.ShortURLs) != 1 || loaded.ShortURLs[0].Slug != "bp" {
		t.Fatalf("expected linked short url, got %+v", loaded.ShortURLs)
	}
	if loaded.Metadata["layout"] != "wide" {
		t.Fatalf("expected metadata round trip, got %v", loaded.Metadata)
	}
	if loaded.UpdatedAt != nil {
		t.Fatalf("expected nil updated at, got %v", loaded.UpdatedAt)
	}

	bySlug, err := store.Posts().GetBySlug(ctx, "bun-post")
	if err != nil || bySlug.ID != post.ID {
		t.Fatalf("get by slug: %v %v", bySlug, err)
	}

	author, err := store.Authors().GetByEmail(ctx, "JANE@example.com")
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if author.ID != identity.AuthorUUID("jane@example.com") {
		t.Fatalf("unexpected author id %s", author.ID)
	}
	if _, err := store.Tags().GetByName(ctx, "missing"); !posts.IsNotFound(err) {
		t.Fatalf("expected missing tag to be not found, got %v", err)
	}
}

func TestBunStoreUpdateReplacesAssociations(t *testing.T) {
	ctx := context.Background()
	store := posts.NewBunStore(newBunDB(t))
	manager, err := posts.NewManager(store.Authors(), store.Tags(), store.ShortURLs())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	created, err := manager.CreateFromParsedPost(ctx, parsedFixture(t, "v1", []string{"go", "bun"}, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Posts().Save(ctx, created); err != nil {
		t.Fatalf("save: %v", err)
	}

	existing, err := store.Posts().GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	updated, err := manager.UpdateFromParsedPost(ctx, existing, parsedFixture(t, "v2", []string{"sqlite"}, nil))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Posts().Save(ctx, updated); err != nil {
		t.Fatalf("save update: %v", err)
	}

	reloaded, err := store.Posts().GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload updated: %v", err)
	}
	if reloaded.Body != "v2" || reloaded.UpdatedAt == nil {
		t.Fatalf("expected updated body and timestamp, got %+v", reloaded)
	}
	if len(reloaded.Tags) != 1 || reloaded.Tags[0].Name != "sqlite" {
		t.Fatalf("expected replaced tags, got %+v", reloaded.Tags)
	}

	list, err := store.Posts().List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one post, got %d %v", len(list), err)
	}
}

func TestBunStoreSlugConflict(t *testing.T) {
	ctx := context.Background()
	store := posts.NewBunStore(newBunDB(t))

	first := &posts.Post{ID: uuid.New(), BodyType: domain.ContentTypeMarkdown, Title: "A", Slug: "same", Status: domain.StatusDraft, CreatedAt: time.Now().UTC()}
	if err := store.Posts().Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := &posts.Post{ID: uuid.New(), BodyType: domain.ContentTypeMarkdown, Title: "B", Slug: "same", Status: domain.StatusDraft, CreatedAt: time.Now().UTC()}
	if err := store.Posts().Save(ctx, second); !errors.Is(err, posts.ErrSlugConflict) {
		t.Fatalf("expected ErrSlugConflict, got %v", err)
	}
	if _, err := store.Posts().GetByID(ctx, second.ID); !posts.IsNotFound(err) {
		t.Fatalf("expected conflicting post not to be written, got %v", err)
	}
}

func TestBunStoreMissingShortURLRollsBack(t *testing.T) {
	ctx := context.Background()
	store := posts.NewBunStore(newBunDB(t))

	post := &posts.Post{
		ID:        uuid.New(),
		BodyType:  domain.ContentTypeMarkdown,
		Title:     "Orphan",
		Slug:      "orphan",
		Status:    domain.StatusDraft,
		CreatedAt: time.Now().UTC(),
		Tags:      []*posts.Tag{{ID: identity.TagUUID("orphan"), Name: "orphan"}},
		ShortURLs: []*posts.ShortURL{{Slug: "ghost"}},
	}
	if err := store.Posts().Save(ctx, post); !posts.IsNotFound(err) {
		t.Fatalf("expected not found for missing short url, got %v", err)
	}
	if _, err := store.Posts().GetByID(ctx, post.ID); !posts.IsNotFound(err) {
		t.Fatalf("expected post insert to be rolled back, got %v", err)
	}
	if _, err := store.Tags().GetByName(ctx, "orphan"); !posts.IsNotFound(err) {
		t.Fatalf("expected tag insert to be rolled back, got %v", err)
	}
}

func TestBunStoreWithCache(t *testing.T) {
	ctx := context.Background()
	cfg := repocache.DefaultConfig()
	cfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	db := newBunDB(t)
	if _, err := posts.NewBunStore(db).ShortURLs().Create(ctx, &posts.ShortURL{ID: identity.ShortURLUUID("c"), Slug: "c", TargetURL: "https://example.com/c"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	store := posts.NewBunStoreWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
	for i := 0; i < 2; i++ {
		short, err := store.ShortURLs().GetBySlug(ctx, "c")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if short.TargetURL != "https://example.com/c" {
			t.Fatalf("unexpected target %q", short.TargetURL)
		}
	}
}

func TestBunStoreBylineChangeRefreshesCachedAuthor(t *testing.T) {
	ctx := context.Background()
	cacheService, err := repocache.NewCacheService(repocache.DefaultConfig())
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	store := posts.NewBunStoreWithCache(newBunDB(t), cacheService, repocache.NewDefaultKeySerializer())
	manager, err := posts.NewManager(store.Authors(), store.Tags(), store.ShortURLs())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	post, err := manager.CreateFromParsedPost(ctx, parsedFixture(t, "# Bun", nil, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Posts().Save(ctx, post); err != nil {
		t.Fatalf("save: %v", err)
	}
	if cached, err := store.Authors().GetByEmail(ctx, "jane@example.com"); err != nil || cached.Byline != "Jane Doe" {
		t.Fatalf("warm cache: %+v %v", cached, err)
	}

	post.Authors[0] = &posts.Author{ID: post.Authors[0].ID, Byline: "J. Doe", Email: "jane@example.com"}
	if err := store.Posts().Save(ctx, post); err != nil {
		t.Fatalf("save byline change: %v", err)
	}

	author, err := store.Authors().GetByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if author.Byline != "J. Doe" {
		t.Fatalf("expected cached author to be refreshed, got byline %q", author.Byline)
	}
}
