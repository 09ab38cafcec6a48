package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunStore implements Store on top of bun. Natural key lookups go through
// go-repository-bun (optionally cached); post writes use raw queries inside a
// single transaction.
type BunStore struct {
	posts     *BunPostRepository
	authors   *BunAuthorRepository
	tags      *BunTagRepository
	shortURLs *BunShortURLRepository
}

var _ Store = (*BunStore)(nil)

// NewBunStore constructs a store without caching.
func NewBunStore(db *bun.DB) *BunStore {
	return NewBunStoreWithCache(db, nil, nil)
}

// NewBunStoreWithCache wraps the author, tag and short URL repositories with
// go-repository-cache when both cache collaborators are supplied.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunStore {
	authors := wrapWithCache(NewAuthorRepository(db), cacheService, keySerializer)
	return &BunStore{
		posts:     &BunPostRepository{db: db, authors: authors},
		authors:   &BunAuthorRepository{repo: authors},
		tags:      &BunTagRepository{repo: wrapWithCache(NewTagRepository(db), cacheService, keySerializer)},
		shortURLs: &BunShortURLRepository{repo: wrapWithCache(NewShortURLRepository(db), cacheService, keySerializer)},
	}
}

func (s *BunStore) Posts() PostRepository         { return s.posts }
func (s *BunStore) Authors() AuthorRepository     { return s.authors }
func (s *BunStore) Tags() TagRepository           { return s.tags }
func (s *BunStore) ShortURLs() ShortURLRepository { return s.shortURLs }

type BunAuthorRepository struct {
	repo repository.Repository[*Author]
}

func (r *BunAuthorRepository) GetByEmail(ctx context.Context, email string) (*Author, error) {
	email = normalizeEmail(email)
	result, err := r.repo.GetByIdentifier(ctx, email)
	if err != nil {
		return nil, mapRepositoryError(err, "author", email)
	}
	return result, nil
}

type BunTagRepository struct {
	repo repository.Repository[*Tag]
}

func (r *BunTagRepository) GetByName(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	result, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "tag", name)
	}
	return result, nil
}

type BunShortURLRepository struct {
	repo repository.Repository[*ShortURL]
}

func (r *BunShortURLRepository) GetBySlug(ctx context.Context, slug string) (*ShortURL, error) {
	slug = strings.TrimSpace(slug)
	result, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "short_url", slug)
	}
	return result, nil
}

func (r *BunShortURLRepository) Create(ctx context.Context, short *ShortURL) (*ShortURL, error) {
	if short == nil {
		return nil, ErrInvalidArgument
	}
	if _, err := r.GetBySlug(ctx, short.Slug); err == nil {
		return nil, ErrShortURLExists
	} else if !IsNotFound(err) {
		return nil, err
	}
	created, err := r.repo.Create(ctx, short)
	if err != nil {
		return nil, mapRepositoryError(err, "short_url", short.Slug)
	}
	return created, nil
}

func (r *BunShortURLRepository) List(ctx context.Context) ([]*ShortURL, error) {
	records, _, err := r.repo.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "short_url", "")
	}
	return records, nil
}

// BunPostRepository persists posts and their join rows. Author bylines are
// written through the author repository so a cached lookup is invalidated.
type BunPostRepository struct {
	db      *bun.DB
	authors repository.Repository[*Author]
}

func (r *BunPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return r.get(ctx, "id", id.String(), id)
}

func (r *BunPostRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	return r.get(ctx, "slug", slug, slug)
}

func (r *BunPostRepository) get(ctx context.Context, column, key string, value any) (*Post, error) {
	post := new(Post)
	err := r.db.NewSelect().
		Model(post).
		Where("?TableAlias.? = ?", bun.Ident(column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Resource: "post", Key: key}
		}
		return nil, fmt.Errorf("post repository error: %w", err)
	}
	if err := loadAssociations(ctx, r.db, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *BunPostRepository) List(ctx context.Context) ([]*Post, error) {
	var records []*Post
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	for _, post := range records {
		if err := loadAssociations(ctx, r.db, post); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Save upserts the post and rewrites its associations in one transaction.
// Authors and tags that already exist under the same natural key are reused
// and their ids copied back onto the supplied entities.
func (r *BunPostRepository) Save(ctx context.Context, post *Post) error {
	if post == nil {
		return ErrInvalidArgument
	}
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		conflict, err := tx.NewSelect().
			Model((*Post)(nil)).
			Where("?TableAlias.slug = ?", post.Slug).
			Where("?TableAlias.id != ?", post.ID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check slug: %w", err)
		}
		if conflict {
			return ErrSlugConflict
		}

		if err := r.saveAuthors(ctx, tx, post.Authors); err != nil {
			return err
		}
		if err := saveTags(ctx, tx, post.Tags); err != nil {
			return err
		}

		exists, err := tx.NewSelect().
			Model((*Post)(nil)).
			Where("?TableAlias.id = ?", post.ID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check post: %w", err)
		}
		if exists {
			if _, err := tx.NewUpdate().Model(post).WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update post: %w", err)
			}
		} else {
			if _, err := tx.NewInsert().Model(post).Exec(ctx); err != nil {
				return fmt.Errorf("insert post: %w", err)
			}
		}

		if err := replaceJoinRows(ctx, tx, post); err != nil {
			return err
		}
		return linkShortURLs(ctx, tx, post)
	})
}

func (r *BunPostRepository) saveAuthors(ctx context.Context, tx bun.Tx, authors []*Author) error {
	for _, author := range authors {
		if author == nil {
			continue
		}
		author.Email = normalizeEmail(author.Email)

		existing := new(Author)
		err := tx.NewSelect().Model(existing).Where("?TableAlias.email = ?", author.Email).Limit(1).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.NewInsert().Model(author).Exec(ctx); err != nil {
				return fmt.Errorf("insert author %q: %w", author.Email, err)
			}
		case err != nil:
			return fmt.Errorf("lookup author %q: %w", author.Email, err)
		default:
			author.ID = existing.ID
			if existing.Byline != author.Byline {
				if _, err := r.authors.UpdateTx(ctx, tx, author, bylineOnly); err != nil {
					return fmt.Errorf("update author %q: %w", author.Email, err)
				}
			}
		}
	}
	return nil
}

var bylineOnly = repository.UpdateRawProcessor(func(q *bun.UpdateQuery) *bun.UpdateQuery {
	return q.Column("byline")
})

func saveTags(ctx context.Context, tx bun.Tx, tags []*Tag) error {
	for _, tag := range tags {
		if tag == nil {
			continue
		}
		existing := new(Tag)
		err := tx.NewSelect().Model(existing).Where("?TableAlias.name = ?", tag.Name).Limit(1).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.NewInsert().Model(tag).Exec(ctx); err != nil {
				return fmt.Errorf("insert tag %q: %w", tag.Name, err)
			}
		case err != nil:
			return fmt.Errorf("lookup tag %q: %w", tag.Name, err)
		default:
			tag.ID = existing.ID
		}
	}
	return nil
}

func replaceJoinRows(ctx context.Context, tx bun.Tx, post *Post) error {
	if _, err := tx.NewDelete().Model((*PostAuthor)(nil)).Where("?TableAlias.post_id = ?", post.ID).Exec(ctx); err != nil {
		return fmt.Errorf("delete post authors: %w", err)
	}
	if _, err := tx.NewDelete().Model((*PostTag)(nil)).Where("?TableAlias.post_id = ?", post.ID).Exec(ctx); err != nil {
		return fmt.Errorf("delete post tags: %w", err)
	}

	authorRows := make([]*PostAuthor, 0, len(post.Authors))
	for _, author := range post.Authors {
		if author != nil {
			authorRows = append(authorRows, &PostAuthor{PostID: post.ID, AuthorID: author.ID, Position: len(authorRows)})
		}
	}
	if len(authorRows) > 0 {
		if _, err := tx.NewInsert().Model(&authorRows).Exec(ctx); err != nil {
			return fmt.Errorf("insert post authors: %w", err)
		}
	}

	tagRows := make([]*PostTag, 0, len(post.Tags))
	for _, tag := range post.Tags {
		if tag != nil {
			tagRows = append(tagRows, &PostTag{PostID: post.ID, TagID: tag.ID, Position: len(tagRows)})
		}
	}
	if len(tagRows) > 0 {
		if _, err := tx.NewInsert().Model(&tagRows).Exec(ctx); err != nil {
			return fmt.Errorf("insert post tags: %w", err)
		}
	}
	return nil
}

func linkShortURLs(ctx context.Context, tx bun.Tx, post *Post) error {
	if _, err := tx.NewUpdate().
		Model((*ShortURL)(nil)).
		Set("post_id = NULL").
		Where("post_id = ?", post.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("unlink short urls: %w", err)
	}

	for _, short := range post.ShortURLs {
		if short == nil {
			continue
		}
		res, err := tx.NewUpdate().
			Model((*ShortURL)(nil)).
			Set("post_id = ?", post.ID).
			Where("slug = ?", short.Slug).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("link short url %q: %w", short.Slug, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return shortURLNotFound(short.Slug)
		}
		postID := post.ID
		short.PostID = &postID
	}
	return nil
}

func loadAssociations(ctx context.Context, db bun.IDB, post *Post) error {
	post.Authors = []*Author{}
	err := db.NewSelect().
		Model(&post.Authors).
		Join("JOIN post_authors AS pa ON pa.author_id = a.id").
		Where("pa.post_id = ?", post.ID).
		OrderExpr("pa.position ASC").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("load post authors: %w", err)
	}

	post.Tags = []*Tag{}
	err = db.NewSelect().
		Model(&post.Tags).
		Join("JOIN post_tags AS pt ON pt.tag_id = t.id").
		Where("pt.post_id = ?", post.ID).
		OrderExpr("pt.position ASC").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}

	post.ShortURLs = []*ShortURL{}
	err = db.NewSelect().
		Model(&post.ShortURLs).
		Where("?TableAlias.post_id = ?", post.ID).
		OrderExpr("?TableAlias.slug ASC").
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("load post short urls: %w", err)
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
