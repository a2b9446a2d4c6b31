package filesystem

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockFileSystem provides in-memory filesystem for testing
type MockFileSystem struct {
	mu         sync.Mutex
	files      map[string]*MockFile
	currentDir string

	// Hooks for testing error scenarios
	MkdirAllError error
	RenameError   error
}

// MockFile represents a file in the mock filesystem
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	IsDir   bool
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// mockWriter buffers writes and stores them in the filesystem on Close.
type mockWriter struct {
	mfs  *MockFileSystem
	path string
	buf  bytes.Buffer
}

func (w *mockWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *mockWriter) Close() error {
	w.mfs.mu.Lock()
	defer w.mfs.mu.Unlock()

	if _, exists := w.mfs.files[w.path]; !exists {
		// Removed while open; nothing to flush.
		return nil
	}
	w.mfs.files[w.path].Content = w.buf.Bytes()
	return nil
}

// NewMockFileSystem creates a new MockFileSystem
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:      make(map[string]*MockFile),
		currentDir: "/workspace",
	}
}

// AddFile adds a file to the mock filesystem
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.files[cleanPath] = &MockFile{
		Content: content,
		Mode:    0644,
		ModTime: time.Now(),
		IsDir:   false,
	}
	mfs.addParents(cleanPath)
}

// AddDir adds a directory to the mock filesystem
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	mfs.addDir(cleanPath)
	mfs.addParents(cleanPath)
}

func (mfs *MockFileSystem) addDir(cleanPath string) {
	if _, exists := mfs.files[cleanPath]; !exists {
		mfs.files[cleanPath] = &MockFile{
			Mode:    0755 | fs.ModeDir,
			ModTime: time.Now(),
			IsDir:   true,
		}
	}
}

// addParents ensures every ancestor of cleanPath exists as a directory.
func (mfs *MockFileSystem) addParents(cleanPath string) {
	dir := filepath.Dir(cleanPath)
	for dir != "." && dir != "/" && dir != cleanPath {
		mfs.addDir(dir)
		dir = filepath.Dir(dir)
	}
}

func (mfs *MockFileSystem) ReadFile(path string) ([]byte, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	if file.IsDir {
		return nil, errors.New("is a directory")
	}
	return file.Content, nil
}

func (mfs *MockFileSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if err := mfs.requireParent(cleanPath); err != nil {
		return err
	}

	mfs.files[cleanPath] = &MockFile{
		Content: data,
		Mode:    perm,
		ModTime: time.Now(),
		IsDir:   false,
	}
	return nil
}

func (mfs *MockFileSystem) Create(path string) (io.WriteCloser, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if err := mfs.requireParent(cleanPath); err != nil {
		return nil, err
	}

	mfs.files[cleanPath] = &MockFile{
		Mode:    0644,
		ModTime: time.Now(),
	}
	return &mockWriter{mfs: mfs, path: cleanPath}, nil
}

func (mfs *MockFileSystem) requireParent(cleanPath string) error {
	dir := filepath.Dir(cleanPath)
	if dir == "." || dir == "/" {
		return nil
	}
	parent, exists := mfs.files[dir]
	if !exists || !parent.IsDir {
		return &fs.PathError{Op: "open", Path: cleanPath, Err: fs.ErrNotExist}
	}
	return nil
}

func (mfs *MockFileSystem) Rename(oldPath, newPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	if mfs.RenameError != nil {
		return mfs.RenameError
	}

	cleanOld := filepath.Clean(oldPath)
	cleanNew := filepath.Clean(newPath)
	file, exists := mfs.files[cleanOld]
	if !exists {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	if err := mfs.requireParent(cleanNew); err != nil {
		return err
	}

	delete(mfs.files, cleanOld)
	mfs.files[cleanNew] = file
	return nil
}

func (mfs *MockFileSystem) Remove(path string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cleanPath := filepath.Clean(path)
	if _, exists := mfs.files[cleanPath]; !exists {
		return fs.ErrNotExist
	}
	delete(mfs.files, cleanPath)
	return nil
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	if mfs.MkdirAllError != nil {
		return mfs.MkdirAllError
	}

	cleanPath := filepath.Clean(path)
	parts := strings.Split(cleanPath, string(filepath.Separator))

	current := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if current == "" {
			current = string(filepath.Separator) + part
		} else {
			current = filepath.Join(current, part)
		}

		existing, exists := mfs.files[current]
		if !exists {
			mfs.files[current] = &MockFile{
				Mode:    perm | fs.ModeDir,
				ModTime: time.Now(),
				IsDir:   true,
			}
			continue
		}
		if !existing.IsDir {
			return &fs.PathError{Op: "mkdir", Path: current, Err: errors.New("not a directory")}
		}
	}
	return nil
}

func (mfs *MockFileSystem) Stat(path string) (fs.FileInfo, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	file, exists := mfs.files[filepath.Clean(path)]
	if !exists {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}

	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Mode,
		modTime: file.ModTime,
		isDir:   file.IsDir,
	}, nil
}

func (mfs *MockFileSystem) Exists(path string) bool {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	_, exists := mfs.files[filepath.Clean(path)]
	return exists
}

func (mfs *MockFileSystem) IsFile(path string) bool {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	file, exists := mfs.files[filepath.Clean(path)]
	return exists && !file.IsDir
}

func (mfs *MockFileSystem) Getwd() (string, error) {
	return mfs.currentDir, nil
}

// SetCurrentDir sets the current working directory for the mock
func (mfs *MockFileSystem) SetCurrentDir(dir string) {
	mfs.currentDir = dir
}

// Paths returns every path in the mock filesystem, sorted (for assertions)
func (mfs *MockFileSystem) Paths() []string {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	paths := make([]string, 0, len(mfs.files))
	for p := range mfs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
