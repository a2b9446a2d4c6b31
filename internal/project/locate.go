package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/candid-gen/internal/filesystem"
)

const (
	// ManifestFile is the dfx project manifest.
	ManifestFile = "dfx.json"
	// CargoFile is the cargo workspace manifest.
	CargoFile = "Cargo.toml"
)

// ErrRootNotFound is returned when no ancestor holds both project manifests.
var ErrRootNotFound = errors.New("project root not found")

// Locate walks up from startDir to the first directory containing both
// dfx.json and Cargo.toml.
//
// The walk stops before homeDir (which is never tested) or after the
// filesystem root. An empty homeDir disables the boundary.
func Locate(fs filesystem.FileSystem, startDir, homeDir string) (string, error) {
	dir := filepath.Clean(startDir)
	home := ""
	if homeDir != "" {
		home = filepath.Clean(homeDir)
	}

	for dir != home {
		hasManifest := fs.Exists(filepath.Join(dir, ManifestFile))
		hasCargo := fs.Exists(filepath.Join(dir, CargoFile))

		if hasManifest && hasCargo {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: no directory containing both %s and %s from %s", ErrRootNotFound, ManifestFile, CargoFile, startDir)
}

// LocateFromWorkingDir runs Locate from the filesystem's working directory.
func LocateFromWorkingDir(fs filesystem.FileSystem, homeDir string) (string, error) {
	cwd, err := fs.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return Locate(fs, cwd, homeDir)
}
