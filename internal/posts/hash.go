package posts

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ContentHash is a digest over the content significant fields of a post.
// Timestamps, the feed id, free-form metadata and short URLs do not
// participate, so touching them never registers as a change.
type ContentHash struct {
	value string
}

type hashAuthor struct {
	byline string
	email  string
}

// hashInput is the canonical tuple both representations are reduced to.
type hashInput struct {
	id          uuid.UUID
	bodyType    string
	title       string
	slug        string
	status      string
	categories  []string
	tags        []string
	description *string
	keywords    []string
	excerpt     *string
	authors     []hashAuthor
	body        string
}

// NewContentHashFromParsedPost hashes a freshly parsed post.
func NewContentHashFromParsedPost(parsed *ParsedPost) ContentHash {
	return parsedHashInput(parsed, nil).digest()
}

// NewContentHashWithAuthors hashes parsed as if every author also present in
// bound carried the bound byline. Reconciliation keeps a stored byline unless
// its replacement is confirmed, so with the authors of a stored post this is
// the digest the post would have after an update that changes no byline.
func NewContentHashWithAuthors(parsed *ParsedPost, bound []*Author) ContentHash {
	bylines := make(map[string]string, len(bound))
	for _, author := range bound {
		if author != nil {
			bylines[normalizeEmail(author.Email)] = author.Byline
		}
	}
	return parsedHashInput(parsed, bylines).digest()
}

func parsedHashInput(parsed *ParsedPost, bylines map[string]string) hashInput {
	meta := parsed.Metadata()
	input := hashInput{
		id:          meta.ID,
		bodyType:    string(meta.ContentType),
		title:       meta.Title,
		slug:        meta.Slug,
		status:      string(meta.Status),
		tags:        meta.Tags,
		description: meta.Description,
		keywords:    meta.Keywords,
		excerpt:     meta.Excerpt,
		body:        parsed.Content(),
	}
	for _, cat := range meta.Categories {
		input.categories = append(input.categories, string(cat))
	}
	for _, author := range parsed.Authors() {
		byline := author.Byline
		if bound, ok := bylines[normalizeEmail(author.Email)]; ok {
			byline = bound
		}
		input.authors = append(input.authors, hashAuthor{byline: byline, email: author.Email})
	}
	return input
}

// NewContentHashFromPost hashes a persisted post.
func NewContentHashFromPost(post *Post) ContentHash {
	if post == nil {
		return ContentHash{}
	}
	input := hashInput{
		id:          post.ID,
		bodyType:    string(post.BodyType),
		title:       post.Title,
		slug:        post.Slug,
		status:      string(post.Status),
		categories:  post.Categories,
		description: post.Description,
		keywords:    post.Keywords,
		excerpt:     post.Excerpt,
		body:        post.Body,
	}
	for _, tag := range post.Tags {
		if tag != nil {
			input.tags = append(input.tags, tag.Name)
		}
	}
	for _, author := range post.Authors {
		if author != nil {
			input.authors = append(input.authors, hashAuthor{byline: author.Byline, email: author.Email})
		}
	}
	return input.digest()
}

// Hash returns the hex encoded digest.
func (h ContentHash) Hash() string { return h.value }

func (h ContentHash) String() string { return h.value }

// Equals compares two digests. The zero value never equals anything.
func (h ContentHash) Equals(other ContentHash) bool {
	return h.value != "" && h.value == other.value
}

func (in hashInput) digest() ContentHash {
	fields := []string{
		in.id.String(),
		in.bodyType,
		strings.TrimSpace(in.title),
		strings.TrimSpace(in.slug),
		in.status,
		strings.Join(sortedSet(in.categories), "\x1f"),
		strings.Join(sortedSet(in.tags), "\x1f"),
		valueOrEmpty(in.description),
		strings.Join(sortedCopy(in.keywords), "\x1f"),
		valueOrEmpty(in.excerpt),
		strings.Join(normalizeHashAuthors(in.authors), "\x1f"),
		in.body,
	}

	h := sha256.New()
	for _, field := range fields {
		// length prefix keeps field boundaries unambiguous
		h.Write([]byte(strconv.Itoa(len(field))))
		h.Write([]byte{':'})
		h.Write([]byte(field))
	}
	return ContentHash{value: hex.EncodeToString(h.Sum(nil))}
}

func sortedSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedCopy(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}

// normalizeHashAuthors keeps the first author per email then orders the
// pairs by byline and email. A missing byline falls back to the email, the
// same way new authors are created.
func normalizeHashAuthors(authors []hashAuthor) []string {
	seen := make(map[string]struct{}, len(authors))
	pairs := make([]hashAuthor, 0, len(authors))
	for _, author := range authors {
		email := normalizeEmail(author.email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		byline := strings.TrimSpace(author.byline)
		if byline == "" {
			byline = email
		}
		pairs = append(pairs, hashAuthor{byline: byline, email: email})
	}
	slices.SortFunc(pairs, func(a, b hashAuthor) int {
		if c := strings.Compare(a.byline, b.byline); c != 0 {
			return c
		}
		return strings.Compare(a.email, b.email)
	})
	out := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, pair.byline+"\x1e"+pair.email)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
