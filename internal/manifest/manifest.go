package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jakoblorz/candid-gen/internal/filesystem"
)

// FileName is the name of the dfx project manifest.
const FileName = "dfx.json"

// ErrInvalidManifest is returned when dfx.json is not a usable JSON document.
var ErrInvalidManifest = errors.New("invalid dfx.json")

// Manifest is the subset of dfx.json this tool cares about.
type Manifest struct {
	// Path is the file the manifest was read from, if any.
	Path string

	// Canisters holds the accepted rust canisters.
	Canisters Registry

	// Skipped lists entries that were not accepted, sorted by name.
	Skipped []SkippedEntry
}

// SkippedEntry records why a canister entry was dropped.
type SkippedEntry struct {
	Name   string
	Reason string
}

// Parse decodes a dfx.json document.
//
// Entries under "canisters" that are malformed or not of type "rust" are
// recorded in Skipped and never fail the parse. Other top-level keys are
// ignored.
func Parse(data []byte) (*Manifest, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: top-level value must be an object", ErrInvalidManifest)
	}

	m := &Manifest{Canisters: make(Registry)}

	raw, ok := doc["canisters"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return m, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: \"canisters\" must be an object: %v", ErrInvalidManifest, err)
	}

	for name, entry := range entries {
		var c Canister
		if err := json.Unmarshal(entry, &c); err != nil {
			m.Skipped = append(m.Skipped, SkippedEntry{Name: name, Reason: err.Error()})
			continue
		}
		if c.Type != CanisterTypeRust {
			m.Skipped = append(m.Skipped, SkippedEntry{
				Name:   name,
				Reason: fmt.Sprintf("type %q is not %q", c.Type, CanisterTypeRust),
			})
			continue
		}

		c.Name = name
		m.Canisters[name] = &c
	}

	sort.Slice(m.Skipped, func(i, j int) bool {
		return m.Skipped[i].Name < m.Skipped[j].Name
	})

	return m, nil
}

// Load reads and parses dfx.json from the project root.
func Load(fs filesystem.FileSystem, projectRoot string) (*Manifest, error) {
	path := filepath.Join(projectRoot, FileName)

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	m.Path = path
	return m, nil
}
