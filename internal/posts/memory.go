package posts

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu sync.RWMutex

	posts     map[uuid.UUID]*Post
	postSlugs map[string]uuid.UUID
	postTags  map[uuid.UUID][]uuid.UUID
	postUsers map[uuid.UUID][]uuid.UUID

	authors      map[uuid.UUID]*Author
	authorEmails map[string]uuid.UUID

	tags     map[uuid.UUID]*Tag
	tagNames map[string]uuid.UUID

	shortURLs  map[uuid.UUID]*ShortURL
	shortSlugs map[string]uuid.UUID

	saves int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:        make(map[uuid.UUID]*Post),
		postSlugs:    make(map[string]uuid.UUID),
		postTags:     make(map[uuid.UUID][]uuid.UUID),
		postUsers:    make(map[uuid.UUID][]uuid.UUID),
		authors:      make(map[uuid.UUID]*Author),
		authorEmails: make(map[string]uuid.UUID),
		tags:         make(map[uuid.UUID]*Tag),
		tagNames:     make(map[string]uuid.UUID),
		shortURLs:    make(map[uuid.UUID]*ShortURL),
		shortSlugs:   make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) Posts() PostRepository         { return memoryPosts{m} }
func (m *MemoryStore) Authors() AuthorRepository     { return memoryAuthors{m} }
func (m *MemoryStore) Tags() TagRepository           { return memoryTags{m} }
func (m *MemoryStore) ShortURLs() ShortURLRepository { return memoryShortURLs{m} }

// Saves reports how many times Save completed successfully.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

type memoryPosts struct{ m *MemoryStore }

func (r memoryPosts) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	if _, ok := r.m.posts[id]; !ok {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return r.m.hydrate(id), nil
}

func (r memoryPosts) GetBySlug(_ context.Context, slug string) (*Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.postSlugs[strings.TrimSpace(slug)]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	return r.m.hydrate(id), nil
}

func (r memoryPosts) List(_ context.Context) ([]*Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*Post, 0, len(r.m.posts))
	for id := range r.m.posts {
		out = append(out, r.m.hydrate(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Save applies every change under one lock. Validation happens before any
// map is touched so a failed save leaves the store unchanged.
func (r memoryPosts) Save(_ context.Context, post *Post) error {
	if post == nil {
		return ErrInvalidArgument
	}
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if owner, ok := m.postSlugs[post.Slug]; ok && owner != post.ID {
		return ErrSlugConflict
	}
	for _, short := range post.ShortURLs {
		if short == nil {
			continue
		}
		if _, ok := m.shortSlugs[short.Slug]; !ok {
			return shortURLNotFound(short.Slug)
		}
	}

	authorIDs := make([]uuid.UUID, 0, len(post.Authors))
	for _, author := range post.Authors {
		if author == nil {
			continue
		}
		email := normalizeEmail(author.Email)
		if existing, ok := m.authorEmails[email]; ok {
			author.ID = existing
		} else {
			m.authorEmails[email] = author.ID
		}
		copied := *author
		copied.Email = email
		m.authors[author.ID] = &copied
		authorIDs = append(authorIDs, author.ID)
	}

	tagIDs := make([]uuid.UUID, 0, len(post.Tags))
	for _, tag := range post.Tags {
		if tag == nil {
			continue
		}
		if existing, ok := m.tagNames[tag.Name]; ok {
			tag.ID = existing
		} else {
			m.tagNames[tag.Name] = tag.ID
			copied := *tag
			m.tags[tag.ID] = &copied
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	if previous, ok := m.posts[post.ID]; ok && previous.Slug != post.Slug {
		delete(m.postSlugs, previous.Slug)
	}
	stored := clonePost(post)
	stored.Tags, stored.Authors, stored.ShortURLs = nil, nil, nil
	m.posts[post.ID] = stored
	m.postSlugs[post.Slug] = post.ID
	m.postTags[post.ID] = tagIDs
	m.postUsers[post.ID] = authorIDs

	for _, short := range m.shortURLs {
		if short.PostID != nil && *short.PostID == post.ID {
			short.PostID = nil
		}
	}
	for _, short := range post.ShortURLs {
		if short == nil {
			continue
		}
		stored := m.shortURLs[m.shortSlugs[short.Slug]]
		postID := post.ID
		stored.PostID = &postID
		short.ID = stored.ID
		short.PostID = &postID
	}

	m.saves++
	return nil
}

func (m *MemoryStore) hydrate(id uuid.UUID) *Post {
	post := clonePost(m.posts[id])
	for _, tagID := range m.postTags[id] {
		if tag, ok := m.tags[tagID]; ok {
			copied := *tag
			post.Tags = append(post.Tags, &copied)
		}
	}
	for _, authorID := range m.postUsers[id] {
		if author, ok := m.authors[authorID]; ok {
			copied := *author
			post.Authors = append(post.Authors, &copied)
		}
	}
	shorts := make([]*ShortURL, 0)
	for _, short := range m.shortURLs {
		if short.PostID != nil && *short.PostID == id {
			shorts = append(shorts, cloneShortURL(short))
		}
	}
	sort.Slice(shorts, func(i, j int) bool { return shorts[i].Slug < shorts[j].Slug })
	post.ShortURLs = shorts
	return post
}

type memoryAuthors struct{ m *MemoryStore }

func (r memoryAuthors) GetByEmail(_ context.Context, email string) (*Author, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.authorEmails[normalizeEmail(email)]
	if !ok {
		return nil, &NotFoundError{Resource: "author", Key: email}
	}
	copied := *r.m.authors[id]
	return &copied, nil
}

type memoryTags struct{ m *MemoryStore }

func (r memoryTags) GetByName(_ context.Context, name string) (*Tag, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.tagNames[strings.TrimSpace(name)]
	if !ok {
		return nil, &NotFoundError{Resource: "tag", Key: name}
	}
	copied := *r.m.tags[id]
	return &copied, nil
}

type memoryShortURLs struct{ m *MemoryStore }

func (r memoryShortURLs) GetBySlug(_ context.Context, slug string) (*ShortURL, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	id, ok := r.m.shortSlugs[strings.TrimSpace(slug)]
	if !ok {
		return nil, &NotFoundError{Resource: "short_url", Key: slug}
	}
	return cloneShortURL(r.m.shortURLs[id]), nil
}

func (r memoryShortURLs) Create(_ context.Context, short *ShortURL) (*ShortURL, error) {
	if short == nil {
		return nil, ErrInvalidArgument
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.shortSlugs[short.Slug]; ok {
		return nil, ErrShortURLExists
	}
	copied := cloneShortURL(short)
	r.m.shortURLs[copied.ID] = copied
	r.m.shortSlugs[copied.Slug] = copied.ID
	return cloneShortURL(copied), nil
}

func (r memoryShortURLs) List(_ context.Context) ([]*ShortURL, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*ShortURL, 0, len(r.m.shortURLs))
	for _, short := range r.m.shortURLs {
		out = append(out, cloneShortURL(short))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
