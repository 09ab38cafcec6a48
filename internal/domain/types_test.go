package domain

import "testing"

func TestContentTypeFromExtension(t *testing.T) {
	cases := map[string]ContentType{
		".md":       ContentTypeMarkdown,
		"markdown":  ContentTypeMarkdown,
		".HTML":     ContentTypeHTML,
		".rst":      ContentTypeReStructuredText,
	}
	for ext, want := range cases {
		got, ok := ContentTypeFromExtension(ext)
		if !ok || got != want {
			t.Fatalf("extension %q: expected %q, got %q (ok=%v)", ext, want, got, ok)
		}
	}
	if _, ok := ContentTypeFromExtension(".txt"); ok {
		t.Fatalf("expected .txt to be rejected")
	}
}

func TestParsePostStatusDefaultsToDraft(t *testing.T) {
	status, err := ParsePostStatus("  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusDraft {
		t.Fatalf("expected draft, got %q", status)
	}

	status, err = ParsePostStatus("Hidden")
	if err != nil || status != StatusHidden {
		t.Fatalf("expected hidden, got %q (%v)", status, err)
	}

	if _, err := ParsePostStatus("scheduled"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestParsePostCategory(t *testing.T) {
	cat, err := ParsePostCategory("Article")
	if err != nil || cat != CategoryArticle {
		t.Fatalf("expected article, got %q (%v)", cat, err)
	}
	if _, err := ParsePostCategory("recipe"); err == nil {
		t.Fatalf("expected unknown category to fail")
	}
}
