package project

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/jakoblorz/candid-gen/internal/filesystem"
)

// IgnoreChecker reports whether project files are excluded by the root .gitignore.
type IgnoreChecker struct {
	root   string
	ignore gitignore.GitIgnore
}

// LoadIgnore reads <root>/.gitignore. A missing file yields a checker that
// ignores nothing.
func LoadIgnore(fs filesystem.FileSystem, root string) (*IgnoreChecker, error) {
	checker := &IgnoreChecker{root: filepath.Clean(root)}

	ignorePath := filepath.Join(root, ".gitignore")
	if !fs.Exists(ignorePath) {
		return checker, nil
	}

	data, err := fs.ReadFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}

	checker.ignore = gitignore.New(bytes.NewReader(data), checker.root, nil)
	return checker, nil
}

// Ignored reports whether the file at path (absolute or root-relative) is ignored.
func (c *IgnoreChecker) Ignored(path string) bool {
	if c == nil || c.ignore == nil {
		return false
	}

	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(c.root, path)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return false
		}
		rel = r
	}

	match := c.ignore.Relative(filepath.ToSlash(rel), false)
	return match != nil && match.Ignore()
}
