package staticfile

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-blog/pkg/testsupport"
)

func TestDiscoverReturnsSortedMatches(t *testing.T) {
	files := fstest.MapFS{
		"posts/zeta.md":             {Data: []byte("z")},
		"posts/alpha.markdown":      {Data: []byte("a")},
		"posts/2023/notes.rst":      {Data: []byte("n")},
		"posts/2023/page.html":      {Data: []byte("p")},
		"posts/2023/image.png":      {Data: []byte("i")},
		"posts/readme.txt":          {Data: []byte("r")},
		"elsewhere/ignored.md":      {Data: []byte("x")},
		"posts/drafts/beta.MD.bak":  {Data: []byte("b")},
		"posts/drafts/gamma.md":     {Data: []byte("g")},
		"posts/drafts/empty/.keep":  {Data: []byte("")},
		"posts/drafts/empty/README": {Data: []byte("")},
	}

	got, err := NewLoader(files, "/content").Discover(context.Background(), "posts")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	want := []string{
		"posts/2023/notes.rst",
		"posts/2023/page.html",
		"posts/alpha.markdown",
		"posts/drafts/gamma.md",
		"posts/zeta.md",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDiscoverCustomPatterns(t *testing.T) {
	files := fstest.MapFS{
		"a.md":   {Data: []byte("a")},
		"b.html": {Data: []byte("b")},
	}
	got, err := NewLoader(files, "/content", "*.html").Discover(context.Background(), ".")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"b.html"}) {
		t.Fatalf("expected only html files, got %v", got)
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	if _, err := NewLoader(fstest.MapFS{}, "/content").Discover(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestDiscoverHostFilesystemReturnsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, dir, "b.md", "b")
	testsupport.WriteFile(t, dir, "a/c.html", "c")

	got, err := NewLoader(nil, "").Discover(context.Background(), dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	want := []string{filepath.Join(dir, "a", "c.html"), filepath.Join(dir, "b.md")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
