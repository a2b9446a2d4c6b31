package project

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jakoblorz/candid-gen/internal/filesystem"
)

// Builder helps create test projects
type Builder struct {
	fs        *filesystem.MockFileSystem
	root      string
	canisters map[string]map[string]interface{}
	members   []string
}

// NewBuilder creates a new Builder rooted at root
func NewBuilder(root string) *Builder {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(root)
	fs.SetCurrentDir(root)

	return &Builder{
		fs:        fs,
		root:      root,
		canisters: make(map[string]map[string]interface{}),
	}
}

// AddRustCanister adds a rust canister whose package and directory match its name
func (b *Builder) AddRustCanister(name string) *Builder {
	return b.AddCanister(name, map[string]interface{}{
		"type":    "rust",
		"package": name,
		"candid":  path.Join("src", name, name+".did"),
	})
}

// AddCanister adds a raw canister entry to dfx.json. When the entry names a
// package, a cargo package is created under src/<name>.
func (b *Builder) AddCanister(name string, entry map[string]interface{}) *Builder {
	b.canisters[name] = entry

	pkg, ok := entry["package"].(string)
	if !ok || pkg == "" {
		return b
	}

	member := path.Join("src", name)
	b.members = append(b.members, member)

	cargo := fmt.Sprintf("[package]\nname = %q\nversion = \"0.1.0\"\nedition = \"2021\"\n\n[lib]\ncrate-type = [\"cdylib\"]\n", pkg)
	b.fs.AddFile(filepath.Join(b.root, member, CargoFile), []byte(cargo))
	b.fs.AddDir(filepath.Join(b.root, member, "src"))

	return b
}

// AddArtifact creates the release wasm for a crate under target/<target>/release
func (b *Builder) AddArtifact(target, crate string) *Builder {
	wasm := filepath.Join(b.root, "target", target, "release", crate+".wasm")
	b.fs.AddFile(wasm, []byte("\x00asm\x01\x00\x00\x00"))
	return b
}

// AddFile adds an arbitrary file relative to the project root
func (b *Builder) AddFile(rel, content string) *Builder {
	b.fs.AddFile(filepath.Join(b.root, rel), []byte(content))
	return b
}

// Build writes dfx.json and the workspace Cargo.toml and returns the filesystem
func (b *Builder) Build() *filesystem.MockFileSystem {
	doc := map[string]interface{}{
		"version":   1,
		"canisters": b.canisters,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal dfx.json: %v", err))
	}
	b.fs.AddFile(filepath.Join(b.root, ManifestFile), data)

	members := append([]string(nil), b.members...)
	sort.Strings(members)
	quoted := make([]string, len(members))
	for i, m := range members {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	cargo := fmt.Sprintf("[workspace]\nmembers = [%s]\nresolver = \"2\"\n", strings.Join(quoted, ", "))
	b.fs.AddFile(filepath.Join(b.root, CargoFile), []byte(cargo))

	return b.fs
}

// FileSystem returns the mock filesystem
func (b *Builder) FileSystem() *filesystem.MockFileSystem {
	return b.fs
}

// Root returns the project root
func (b *Builder) Root() string {
	return b.root
}
