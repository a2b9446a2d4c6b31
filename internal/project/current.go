package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/candid-gen/internal/filesystem"
	"github.com/pelletier/go-toml/v2"
)

// CurrentSelector is the canister argument that targets the canister owning
// the working directory.
const CurrentSelector = "."

// ErrNoCurrentPackage is returned when the working directory is not inside a
// cargo package below the project root.
var ErrNoCurrentPackage = errors.New("no cargo package in the current directory")

type cargoManifest struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// CurrentPackage returns the name of the cargo package containing dir.
//
// It walks from dir up to (and including) root, returning the first
// Cargo.toml with a [package] table. The workspace Cargo.toml at the root
// usually has none, which yields ErrNoCurrentPackage.
func CurrentPackage(fs filesystem.FileSystem, root, dir string) (string, error) {
	root = filepath.Clean(root)
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the project root %s", ErrNoCurrentPackage, dir, root)
	}

	for {
		cargoPath := filepath.Join(dir, CargoFile)
		if fs.Exists(cargoPath) {
			name, err := readPackageName(fs, cargoPath)
			if err != nil {
				return "", err
			}
			if name != "" {
				return name, nil
			}
		}

		if dir == root {
			break
		}
		dir = filepath.Dir(dir)
	}

	return "", ErrNoCurrentPackage
}

func readPackageName(fs filesystem.FileSystem, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if manifest.Package == nil {
		return "", nil
	}
	return strings.TrimSpace(manifest.Package.Name), nil
}
