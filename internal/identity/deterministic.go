package identity

import (
	"strings"
	"time"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PostUUID returns a version 7 UUID whose timestamp is taken from at and
// whose random bits are derived from the same instant, so the same date
// always produces the same identifier.
//
// Two posts published in the same millisecond collide; files that need to
// share a timestamp must carry an explicit id.
func PostUUID(at time.Time) uuid.UUID {
	at = at.UTC()
	seed := UUID("go-blog:post:" + at.Format(time.RFC3339Nano))
	return withTimestamp(seed, at)
}

// AuthorUUID derives the identifier of an author from its email address.
func AuthorUUID(email string) uuid.UUID {
	return UUID("go-blog:author:" + strings.ToLower(strings.TrimSpace(email)))
}

// TagUUID derives the identifier of a tag from its name.
func TagUUID(name string) uuid.UUID {
	return UUID("go-blog:tag:" + strings.TrimSpace(name))
}

// ShortURLUUID derives the identifier of a short URL from its slug.
func ShortURLUUID(slug string) uuid.UUID {
	return UUID("go-blog:short_url:" + strings.ToLower(strings.TrimSpace(slug)))
}

// withTimestamp lays out id as a v7 UUID: 48 bits of unix milliseconds,
// version nibble 7, RFC 4122 variant, remaining bits kept from id.
func withTimestamp(id uuid.UUID, at time.Time) uuid.UUID {
	ms := uint64(at.UnixMilli())
	id[0] = byte(ms >> 40)
	id[1] = byte(ms >> 32)
	id[2] = byte(ms >> 24)
	id[3] = byte(ms >> 16)
	id[4] = byte(ms >> 8)
	id[5] = byte(ms)
	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// Timestamp extracts the millisecond timestamp carried by a v7 UUID.
func Timestamp(id uuid.UUID) (time.Time, bool) {
	if id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC(), true
}
