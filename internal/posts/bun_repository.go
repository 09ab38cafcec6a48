package posts

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewAuthorRepository(db *bun.DB) repository.Repository[*Author] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Author]{
		NewRecord: func() *Author { return &Author{} },
		GetID: func(a *Author) uuid.UUID {
			return a.ID
		},
		SetID: func(a *Author, id uuid.UUID) {
			a.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(a *Author) string {
			return a.Email
		},
	})
}

func NewTagRepository(db *bun.DB) repository.Repository[*Tag] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Tag]{
		NewRecord: func() *Tag { return &Tag{} },
		GetID: func(t *Tag) uuid.UUID {
			return t.ID
		},
		SetID: func(t *Tag, id uuid.UUID) {
			t.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(t *Tag) string {
			return t.Name
		},
	})
}

func NewShortURLRepository(db *bun.DB) repository.Repository[*ShortURL] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*ShortURL]{
		NewRecord: func() *ShortURL { return &ShortURL{} },
		GetID: func(s *ShortURL) uuid.UUID {
			return s.ID
		},
		SetID: func(s *ShortURL, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(s *ShortURL) string {
			return s.Slug
		},
	})
}
