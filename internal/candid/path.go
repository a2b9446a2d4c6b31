package candid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/candid-gen/internal/filesystem"
	"github.com/jakoblorz/candid-gen/internal/manifest"
)

var ErrInvalidCandidPath = errors.New("could not find the candid dir")

// ResolvePath returns the absolute destination of a canister's candid file.
//
// The parent directory is created when missing and must contain the
// canister's package name somewhere in its path.
func ResolvePath(fs filesystem.FileSystem, root string, c *manifest.Canister) (string, error) {
	if strings.TrimSpace(c.Candid) == "" {
		return "", fmt.Errorf("%w: canister '%s' has an empty candid path", ErrInvalidCandidPath, c.Name)
	}

	dest := filepath.Join(root, filepath.FromSlash(c.Candid))
	dir := filepath.Dir(dest)

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %v", ErrInvalidCandidPath, dir, err)
	}

	if !strings.Contains(dir, c.Package) {
		return "", fmt.Errorf("%w: %s does not contain the package name '%s'", ErrInvalidCandidPath, dir, c.Package)
	}

	return dest, nil
}
