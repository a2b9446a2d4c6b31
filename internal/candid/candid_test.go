package candid

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/jakoblorz/candid-gen/internal/cargo"
	"github.com/jakoblorz/candid-gen/internal/filesystem"
	"github.com/jakoblorz/candid-gen/internal/manifest"
	"github.com/jakoblorz/candid-gen/internal/project"
	"github.com/jakoblorz/candid-gen/internal/shell"
	"github.com/stretchr/testify/require"
)

const (
	wasmTarget = "wasm32-unknown-unknown"
	serviceDid = "service : { greet : (text) -> (text) query }\n"
)

var testLayout = cargo.Layout{Root: "/project", Target: wasmTarget}

func canister(name, pkg, candid string) *manifest.Canister {
	return &manifest.Canister{Name: name, Package: pkg, Candid: candid, Type: manifest.CanisterTypeRust}
}

func TestResolvePath_Success(t *testing.T) {
	fs := project.NewBuilder("/project").AddRustCanister("test").Build()

	dest, err := ResolvePath(fs, "/project", manifest.NewCanister("test"))
	require.NoError(t, err)
	require.Equal(t, "/project/src/test/test.did", dest)
}

func TestResolvePath_CreatesMissingDirectory(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/project")

	dest, err := ResolvePath(fs, "/project", canister("test", "test", "subdir/test/test.did"))
	require.NoError(t, err)
	require.Equal(t, "/project/subdir/test/test.did", dest)
	require.True(t, fs.Exists("/project/subdir/test"))
	require.False(t, fs.IsFile("/project/subdir/test"))
}

func TestResolvePath_EmptyCandid(t *testing.T) {
	fs := filesystem.NewMockFileSystem()

	_, err := ResolvePath(fs, "/project", canister("test", "test", ""))
	require.ErrorIs(t, err, ErrInvalidCandidPath)
}

func TestResolvePath_PackageNotInDirectory(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/project")

	_, err := ResolvePath(fs, "/project", canister("backend", "backend", "candid/api.did"))
	require.ErrorIs(t, err, ErrInvalidCandidPath)
	require.Contains(t, err.Error(), "'backend'")
}

func TestResolvePath_PackageAnywhereInDirectory(t *testing.T) {
	fs := filesystem.NewMockFileSystem()

	dest, err := ResolvePath(fs, "/work/backend", canister("backend", "backend", "api.did"))
	require.NoError(t, err)
	require.Equal(t, "/work/backend/api.did", dest)
}

func TestResolvePath_MkdirFails(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.MkdirAllError = errors.New("read-only filesystem")

	_, err := ResolvePath(fs, "/project", manifest.NewCanister("test"))
	require.ErrorIs(t, err, ErrInvalidCandidPath)
	require.Contains(t, err.Error(), "read-only filesystem")
}

func newTestExtractor(fs filesystem.FileSystem, runner shell.Runner) *Extractor {
	return NewExtractor(fs, runner, "candid-extractor", testLayout, log.New(io.Discard))
}

func TestExtract_Success(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddRustCanister("backend").
		AddArtifact(wasmTarget, "backend").
		Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	dest, err := newTestExtractor(fs, runner).Extract(context.Background(), manifest.NewCanister("backend"))
	require.NoError(t, err)
	require.Equal(t, "/project/src/backend/backend.did", dest)

	data, err := fs.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, serviceDid, string(data))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "/project", calls[0].Dir)
	require.Equal(t, "candid-extractor /project/target/wasm32-unknown-unknown/release/backend.wasm", calls[0].Line)

	for _, p := range fs.Paths() {
		require.False(t, strings.HasSuffix(p, ".tmp"), "temp file left behind: %s", p)
	}
}

func TestExtract_UsesCrateNameForArtifact(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddCanister("api", map[string]interface{}{
			"type":    "rust",
			"package": "my-api",
			"candid":  "src/my-api/api.did",
		}).
		AddArtifact(wasmTarget, "my_api").
		Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	dest, err := newTestExtractor(fs, runner).Extract(context.Background(), canister("api", "my-api", "src/my-api/api.did"))
	require.NoError(t, err)
	require.Equal(t, "/project/src/my-api/api.did", dest)
	require.Equal(t, []string{"candid-extractor /project/target/wasm32-unknown-unknown/release/my_api.wasm"}, runner.Lines())
}

func TestExtract_MissingArtifactNeverRunsExtractor(t *testing.T) {
	fs := project.NewBuilder("/project").AddRustCanister("backend").Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	_, err := newTestExtractor(fs, runner).Extract(context.Background(), manifest.NewCanister("backend"))
	require.ErrorIs(t, err, ErrArtifactMissing)
	require.Contains(t, err.Error(), "does not exist")
	require.Empty(t, runner.Calls())
	require.False(t, fs.Exists("/project/src/backend/backend.did"))
}

func TestExtract_FailureKeepsExistingCandid(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddRustCanister("backend").
		AddArtifact(wasmTarget, "backend").
		AddFile("src/backend/backend.did", "service : {}\n").
		Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{
		Stdout:   "partial",
		ExitCode: 1,
		Stderr:   "Error: failed to find candid:service export",
	})

	_, err := newTestExtractor(fs, runner).Extract(context.Background(), manifest.NewCanister("backend"))
	require.ErrorIs(t, err, ErrExtractionFailed)
	require.Contains(t, err.Error(), "failed to extract candid for the canister 'backend'")
	require.Contains(t, err.Error(), "candid:service export")

	data, err := fs.ReadFile("/project/src/backend/backend.did")
	require.NoError(t, err)
	require.Equal(t, "service : {}\n", string(data))

	for _, p := range fs.Paths() {
		require.False(t, strings.HasSuffix(p, ".tmp"), "temp file left behind: %s", p)
	}
}

func TestExtract_RenameFailureRemovesTempFile(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddRustCanister("backend").
		AddArtifact(wasmTarget, "backend").
		Build()
	fs.RenameError = errors.New("cross-device link")
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	_, err := newTestExtractor(fs, runner).Extract(context.Background(), manifest.NewCanister("backend"))
	require.ErrorIs(t, err, ErrExtractionFailed)
	require.Contains(t, err.Error(), "cross-device link")

	for _, p := range fs.Paths() {
		require.False(t, strings.HasSuffix(p, ".tmp"), "temp file left behind: %s", p)
	}
}

func TestExtract_InvalidCandidPath(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddCanister("backend", map[string]interface{}{
			"type":    "rust",
			"package": "backend",
			"candid":  "candid/api.did",
		}).
		AddArtifact(wasmTarget, "backend").
		Build()
	runner := shell.NewMockRunner()

	_, err := newTestExtractor(fs, runner).Extract(context.Background(), canister("backend", "backend", "candid/api.did"))
	require.ErrorIs(t, err, ErrInvalidCandidPath)
	require.Empty(t, runner.Calls())
}

func TestExtract_WarnsWhenIgnored(t *testing.T) {
	b := project.NewBuilder("/project").
		AddRustCanister("backend").
		AddArtifact(wasmTarget, "backend").
		AddFile(".gitignore", "*.did\n")
	fs := b.Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	ignore, err := project.LoadIgnore(fs, "/project")
	require.NoError(t, err)

	var logs bytes.Buffer
	extractor := NewExtractor(fs, runner, "candid-extractor", testLayout, log.New(&logs)).WithIgnoreChecker(ignore)

	_, err = extractor.Extract(context.Background(), manifest.NewCanister("backend"))
	require.NoError(t, err)
	require.Contains(t, logs.String(), "candid file is ignored by .gitignore")
	require.Contains(t, logs.String(), "src/backend/backend.did")
}

func TestExtract_CancelledContext(t *testing.T) {
	fs := project.NewBuilder("/project").
		AddRustCanister("backend").
		AddArtifact(wasmTarget, "backend").
		Build()
	runner := shell.NewMockRunner().OnPrefix("candid-extractor", shell.Response{Stdout: serviceDid})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(fs, runner).Extract(ctx, manifest.NewCanister("backend"))
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, fs.Exists("/project/src/backend/backend.did"))
}
