package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-blog/internal/domain"
)

// ErrUnsupportedPostBodyType is matched by UnsupportedPostBodyTypeError.
var ErrUnsupportedPostBodyType = errors.New("render: unsupported post body type")

// UnsupportedPostBodyTypeError is returned for body types without a
// registered conversion.
type UnsupportedPostBodyTypeError struct {
	Type domain.ContentType
}

func (e *UnsupportedPostBodyTypeError) Error() string {
	return fmt.Sprintf("Unsupported post body type: %s", e.Type)
}

func (e *UnsupportedPostBodyTypeError) Is(target error) bool {
	return target == ErrUnsupportedPostBodyType
}

// ConversionError wraps a failure raised by a registered conversion.
type ConversionError struct {
	Type domain.ContentType
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s body: %v", e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Source is implemented by anything carrying a typed body, such as persisted
// and parsed posts.
type Source interface {
	RenderSource() (domain.ContentType, string)
}

// ConvertFunc turns a body into HTML.
type ConvertFunc func(body string) (string, error)

// Converter dispatches bodies to the conversion registered for their type.
type Converter struct {
	mu         sync.RWMutex
	converters map[domain.ContentType]ConvertFunc
}

// NewConverter returns a converter handling Markdown through goldmark and
// passing HTML through untouched.
func NewConverter(opts MarkdownOptions) *Converter {
	c := &Converter{converters: make(map[domain.ContentType]ConvertFunc)}
	c.Register(domain.ContentTypeMarkdown, NewMarkdown(opts).Convert)
	c.Register(domain.ContentTypeHTML, passthrough)
	return c
}

// Register installs fn for the given body type, replacing any previous one.
func (c *Converter) Register(bodyType domain.ContentType, fn ConvertFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converters[bodyType] = fn
}

// Supports reports whether a conversion exists for bodyType.
func (c *Converter) Supports(bodyType domain.ContentType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.converters[bodyType]
	return ok
}

// Convert renders the body of src as HTML.
func (c *Converter) Convert(src Source) (string, error) {
	bodyType, body := src.RenderSource()

	c.mu.RLock()
	fn, ok := c.converters[bodyType]
	c.mu.RUnlock()
	if !ok {
		return "", &UnsupportedPostBodyTypeError{Type: bodyType}
	}

	html, err := fn(body)
	if err != nil {
		return "", &ConversionError{Type: bodyType, Err: err}
	}
	return html, nil
}

func passthrough(body string) (string, error) {
	return body, nil
}
