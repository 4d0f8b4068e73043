package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes uploaded files (event posters, payment receipts) under a
// root media directory. Paths returned to callers are relative to the
// root so the database never carries host-specific prefixes.
type Store struct {
	root string
}

var ErrUnsupportedExtension = errors.New("storage: unsupported file extension")

func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage: media dir not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create media dir: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

var allowedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

// Save persists the upload under <root>/<subdir>/<uuid><ext> and
// returns the relative path. The caller validates size and content
// type; Save only guards the extension so we never write something the
// static file server would refuse to label as an image.
func (s *Store) Save(subdir string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrUnsupportedExtension
	}

	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", subdir, err)
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("storage: close file: %w", err)
	}

	return path.Join(subdir, name), nil
}

// Remove deletes a previously saved file. A missing file is not an
// error; replacement flows call Remove best-effort.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	full := filepath.Join(s.root, filepath.Clean("/"+relPath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", relPath, err)
	}
	return nil
}
