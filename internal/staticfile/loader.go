package staticfile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-blog/internal/domain"
)

// DefaultPatterns lists the file name globs picked up by directory ingestion.
func DefaultPatterns() []string {
	exts := domain.AcceptedExtensions()
	patterns := make([]string, 0, len(exts))
	for _, ext := range exts {
		patterns = append(patterns, "*"+ext)
	}
	return patterns
}

// Loader enumerates content files below a directory.
type Loader struct {
	fs       fs.FS
	basePath string
	patterns []string
	host     bool
}

// NewLoader builds a loader over fsys rooted at basePath. A nil fsys reads
// from the host filesystem. Empty patterns fall back to DefaultPatterns.
func NewLoader(fsys fs.FS, basePath string, patterns ...string) *Loader {
	if strings.TrimSpace(basePath) == "" {
		basePath = string(filepath.Separator)
	}
	basePath = filepath.Clean(basePath)
	host := fsys == nil
	if host {
		fsys = os.DirFS(basePath)
	}

	cleaned := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			cleaned = append(cleaned, filepath.ToSlash(trimmed))
		}
	}
	if len(cleaned) == 0 {
		cleaned = DefaultPatterns()
	}

	return &Loader{fs: fsys, basePath: basePath, patterns: cleaned, host: host}
}

// Discover walks dir recursively and returns matching files sorted
// lexicographically. Returned paths keep the form of dir: absolute when dir
// is absolute, relative to the loader root otherwise.
func (l *Loader) Discover(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolve := relativePath
	if l.host {
		resolve = hostRelativePath
	}
	root, err := resolve(l.basePath, dir)
	if err != nil {
		return nil, err
	}
	info, err := fs.Stat(l.fs, root)
	if err != nil {
		return nil, fmt.Errorf("staticfile: directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("staticfile: %s is not a directory", dir)
	}

	absolute := l.host || filepath.IsAbs(dir)
	var paths []string
	walkErr := fs.WalkDir(l.fs, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.matches(path) {
			return nil
		}
		if absolute {
			paths = append(paths, filepath.Join(l.basePath, filepath.FromSlash(path)))
		} else {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) matches(path string) bool {
	for _, pattern := range l.patterns {
		target := filepath.Base(path)
		if strings.Contains(pattern, "/") {
			target = path
		}
		if ok, err := filepath.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// relativePath maps path onto the fs.FS rooted at basePath. Relative paths
// are used as is.
func relativePath(basePath, path string) (string, error) {
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return filepath.ToSlash(clean), nil
	}
	rel, err := filepath.Rel(basePath, clean)
	if err != nil {
		return "", fmt.Errorf("staticfile: make relative %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)
	if !fs.ValidPath(rel) {
		return "", fmt.Errorf("staticfile: %s is outside %s", path, basePath)
	}
	return rel, nil
}

// hostRelativePath resolves working-directory relative paths before mapping
// them onto the host filesystem root.
func hostRelativePath(basePath, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("staticfile: resolve %s: %w", path, err)
	}
	return relativePath(basePath, abs)
}
