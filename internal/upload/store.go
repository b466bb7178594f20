// Package upload persists images sent with post mutations and names them on disk.
package upload

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// URLPrefix is the public route prefix the upload directory is served under.
const URLPrefix = "images"

// File describes one persisted upload.
type File struct {
	Field        string
	OriginalName string
	FileName     string // <0-9999>-<original base name>
	Path         string // location on disk
	URL          string // relative public path, e.g. images/1234-cat.png
	MimeType     string
	Size         int64
}

// Store persists uploaded file contents.
type Store interface {
	Save(field, originalName, mimeType string, r io.Reader) (*File, error)
	Dir() string
}

type diskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store writing into it.
func NewDiskStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &diskStore{dir: dir}, nil
}

func (s *diskStore) Dir() string {
	return s.dir
}

// Save writes r to a new randomized file name. Collisions are possible and overwrite.
func (s *diskStore) Save(field, originalName, mimeType string, r io.Reader) (*File, error) {
	name := FileName(originalName)
	diskPath := filepath.Join(s.dir, name)

	f, err := os.OpenFile(diskPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(diskPath)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}

	return &File{
		Field:        field,
		OriginalName: originalName,
		FileName:     name,
		Path:         diskPath,
		URL:          path.Join(URLPrefix, name),
		MimeType:     mimeType,
		Size:         size,
	}, nil
}

// FileName builds the stored name for an original client file name.
func FileName(originalName string) string {
	return fmt.Sprintf("%d-%s", rand.Intn(10000), baseName(originalName))
}

func baseName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
