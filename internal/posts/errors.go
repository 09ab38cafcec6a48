package posts

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidArgument is the root of every file level validation failure.
	ErrInvalidArgument = errors.New("posts: invalid argument")
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("posts: not found")
	// ErrSlugConflict indicates the slug already belongs to a different post.
	ErrSlugConflict = errors.New("posts: slug already used by another post")
	// ErrIDMismatch is returned when an update targets a post with a different id.
	ErrIDMismatch = errors.New("posts: parsed id does not match existing post")
	// ErrRepositoryRequired guards manager construction.
	ErrRepositoryRequired = errors.New("posts: repository required")
	// ErrShortURLExists is returned when registering a slug twice.
	ErrShortURLExists = errors.New("posts: short url already exists")
	// ErrDuplicateID is returned when two files of one batch resolve to the same post id.
	ErrDuplicateID = errors.New("posts: id produced by more than one file")
)

// SlugChangeError reports an update that would move a stored post to a
// different slug. Date derived ids make this the usual symptom of two files
// sharing a publication date.
type SlugChangeError struct {
	ID     uuid.UUID
	Stored string
	Parsed string
}

func (e *SlugChangeError) Error() string {
	return fmt.Sprintf("Post %s is stored with slug %q, refusing to replace it with %q", e.ID, e.Stored, e.Parsed)
}

func (e *SlugChangeError) Is(target error) bool {
	return target == ErrSlugConflict
}

// ValidationError reports a malformed or incomplete content file.
type ValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError builds a ValidationError for the given file and field.
func NewValidationError(path, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Path:    path,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFoundError is returned when a referenced record does not exist.
type NotFoundError struct {
	Resource string
	Key      string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func shortURLNotFound(reference string) *NotFoundError {
	return &NotFoundError{
		Resource: "short_url",
		Key:      reference,
		Message:  fmt.Sprintf("Short URL %s does not exist", reference),
	}
}
