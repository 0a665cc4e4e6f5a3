// Package fileutil gives uniform, case-insensitive access to game files on
// disk and in embedded file systems. Games shipped for DOS name their files
// in any case; lookups here match each path element ignoring case.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem reads game files by case-insensitive, slash-separated names.
type FileSystem interface {
	Open(name string) (fs.File, error)
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	// BasePath names the root for messages.
	BasePath() string
	IsEmbedded() bool
}

// foldFS resolves names against fsys one element at a time.
type foldFS struct {
	fsys     fs.FS
	base     string
	embedded bool
}

// NewRealFS reads from the host directory dir.
func NewRealFS(dir string) FileSystem {
	return &foldFS{fsys: os.DirFS(dir), base: dir}
}

// NewEmbedFS reads from the subtree root of fsys ("" or "." for all of it).
func NewEmbedFS(fsys fs.FS, root string) FileSystem {
	root = clean(root)
	if root != "." {
		if sub, err := fs.Sub(fsys, root); err == nil {
			fsys = sub
		}
	}
	return &foldFS{fsys: fsys, base: root, embedded: true}
}

func (f *foldFS) Open(name string) (fs.File, error) {
	p, err := Resolve(f.fsys, name)
	if err != nil {
		return nil, err
	}
	return f.fsys.Open(p)
}

func (f *foldFS) ReadFile(name string) ([]byte, error) {
	p, err := Resolve(f.fsys, name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, p)
}

func (f *foldFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := Resolve(f.fsys, name)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(f.fsys, p)
}

func (f *foldFS) BasePath() string { return f.base }

func (f *foldFS) IsEmbedded() bool { return f.embedded }

// clean turns a host or DOS style relative name into an fs.FS path.
func clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// Resolve returns the path in fsys whose elements match name ignoring case.
// Exact matches win over folded ones.
func Resolve(fsys fs.FS, name string) (string, error) {
	name = clean(name)
	if name == "." {
		return name, nil
	}
	if _, err := fs.Stat(fsys, name); err == nil {
		return name, nil
	}

	dir := "."
	for _, elem := range strings.Split(name, "/") {
		found, err := FindFold(fsys, dir, elem)
		if err != nil {
			return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		dir = found
	}
	return dir, nil
}

// FindFold returns the path of the entry in dir named name ignoring case.
func FindFold(fsys fs.FS, dir, name string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("read directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return path.Join(dir, e.Name()), nil
		}
	}
	return "", &fs.PathError{Op: "open", Path: path.Join(dir, name), Err: fs.ErrNotExist}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
