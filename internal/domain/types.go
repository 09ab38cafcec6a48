package domain

import (
	"fmt"
	"strings"
)

// ContentType identifies the markup a post body is authored in.
type ContentType string

const (
	ContentTypeMarkdown         ContentType = "markdown"
	ContentTypeHTML             ContentType = "html"
	ContentTypeReStructuredText ContentType = "rst"
	ContentTypePlaintext        ContentType = "plaintext"
)

// PostStatus represents lifecycle states for blog posts
type PostStatus string

const (
	// StatusDraft indicates the post is still under preparation
	StatusDraft PostStatus = "draft"
	// StatusPublished identifies posts listed publicly
	StatusPublished PostStatus = "published"
	// StatusHidden marks posts reachable by URL but excluded from listings and feeds
	StatusHidden PostStatus = "hidden"
	// StatusArchived marks posts retained for history but not publicly visible
	StatusArchived PostStatus = "archived"
)

// PostCategory classifies posts by shape rather than topic.
type PostCategory string

const (
	CategoryArticle PostCategory = "article"
	CategoryNote    PostCategory = "note"
	CategoryLink    PostCategory = "link"
	CategoryPhoto   PostCategory = "photo"
	CategoryReply   PostCategory = "reply"
	CategoryTalk    PostCategory = "talk"
)

var contentTypesByExtension = map[string]ContentType{
	".md":       ContentTypeMarkdown,
	".markdown": ContentTypeMarkdown,
	".html":     ContentTypeHTML,
	".rst":      ContentTypeReStructuredText,
}

// ContentTypeFromExtension maps a file extension (with or without the leading
// dot) onto the body type it carries.
func ContentTypeFromExtension(ext string) (ContentType, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ct, ok := contentTypesByExtension[ext]
	return ct, ok
}

// AcceptedExtensions lists the file extensions that carry post content.
func AcceptedExtensions() []string {
	return []string{".html", ".markdown", ".md", ".rst"}
}

// ParseContentType resolves stored or user supplied values.
func ParseContentType(value string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(value))); ct {
	case ContentTypeMarkdown, ContentTypeHTML, ContentTypeReStructuredText, ContentTypePlaintext:
		return ct, nil
	}
	return "", fmt.Errorf("domain: unknown content type %q", value)
}

func (c ContentType) String() string { return string(c) }

// ParsePostStatus resolves a status value. Empty input falls back to draft.
func ParsePostStatus(value string) (PostStatus, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return StatusDraft, nil
	}
	switch status := PostStatus(trimmed); status {
	case StatusDraft, StatusPublished, StatusHidden, StatusArchived:
		return status, nil
	}
	return "", fmt.Errorf("domain: unknown post status %q", value)
}

func (s PostStatus) String() string { return string(s) }

// ParsePostCategory resolves a category value.
func ParsePostCategory(value string) (PostCategory, error) {
	switch cat := PostCategory(strings.ToLower(strings.TrimSpace(value))); cat {
	case CategoryArticle, CategoryNote, CategoryLink, CategoryPhoto, CategoryReply, CategoryTalk:
		return cat, nil
	}
	return "", fmt.Errorf("domain: unknown post category %q", value)
}

func (c PostCategory) String() string { return string(c) }
