package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/internal/domain"
)

type stubSource struct {
	bodyType domain.ContentType
	body     string
}

func (s stubSource) RenderSource() (domain.ContentType, string) { return s.bodyType, s.body }

func TestConvertMarkdownHeading(t *testing.T) {
	html, err := NewConverter(MarkdownOptions{}).Convert(stubSource{domain.ContentTypeMarkdown, "# Hello World!"})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if html != "<h1>Hello World!</h1>\n" {
		t.Fatalf("unexpected html %q", html)
	}
}

func TestConvertHTMLPassthrough(t *testing.T) {
	body := "<section><p>raw</p></section>"
	html, err := NewConverter(MarkdownOptions{}).Convert(stubSource{domain.ContentTypeHTML, body})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if html != body {
		t.Fatalf("expected passthrough, got %q", html)
	}
}

func TestConvertUnsupportedTypes(t *testing.T) {
	converter := NewConverter(MarkdownOptions{})
	for _, bodyType := range []domain.ContentType{domain.ContentTypeReStructuredText, domain.ContentTypePlaintext} {
		_, err := converter.Convert(stubSource{bodyType, "Title\n====="})
		if !errors.Is(err, ErrUnsupportedPostBodyType) {
			t.Fatalf("%s: expected ErrUnsupportedPostBodyType, got %v", bodyType, err)
		}
		var unsupported *UnsupportedPostBodyTypeError
		if !errors.As(err, &unsupported) || unsupported.Type != bodyType {
			t.Fatalf("%s: expected typed error, got %#v", bodyType, err)
		}
	}
}

func TestRegisterAddsBodyType(t *testing.T) {
	converter := NewConverter(MarkdownOptions{})
	converter.Register(domain.ContentTypePlaintext, func(body string) (string, error) {
		return "<pre>" + body + "</pre>", nil
	})
	if !converter.Supports(domain.ContentTypePlaintext) {
		t.Fatalf("expected plaintext to be supported after Register")
	}
	html, err := converter.Convert(stubSource{domain.ContentTypePlaintext, "hi"})
	if err != nil || html != "<pre>hi</pre>" {
		t.Fatalf("unexpected result %q %v", html, err)
	}
}

func TestConversionFailureIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	converter := NewConverter(MarkdownOptions{})
	converter.Register(domain.ContentTypeReStructuredText, func(string) (string, error) { return "", boom })

	_, err := converter.Convert(stubSource{domain.ContentTypeReStructuredText, "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped converter error, got %v", err)
	}
	if errors.Is(err, ErrUnsupportedPostBodyType) {
		t.Fatalf("conversion failures must not look like unsupported types")
	}
}

func TestMarkdownOptions(t *testing.T) {
	source := "line one\nline two\n\n<div>raw</div>\n\n- [x] done\n"

	unsafe, err := NewMarkdown(MarkdownOptions{}).Convert(source)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(unsafe, "<div>raw</div>") {
		t.Fatalf("expected raw html by default, got %q", unsafe)
	}
	if !strings.Contains(unsafe, `type="checkbox"`) {
		t.Fatalf("expected task list rendering, got %q", unsafe)
	}

	safe, err := NewMarkdown(MarkdownOptions{SafeMode: true, HardWraps: true}).Convert(source)
	if err != nil {
		t.Fatalf("convert safe: %v", err)
	}
	if strings.Contains(safe, "<div>raw</div>") {
		t.Fatalf("expected raw html to be dropped in safe mode, got %q", safe)
	}
	if !strings.Contains(safe, "line one<br>") {
		t.Fatalf("expected hard wraps, got %q", safe)
	}
}

func TestKnownExtension(t *testing.T) {
	if !KnownExtension(" GFM ") || KnownExtension("emoji") {
		t.Fatalf("unexpected extension lookup results")
	}
}
