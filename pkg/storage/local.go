package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored assets are served.
// Product records reference assets by this prefix plus the stored filename.
const PublicPrefix = "/uploads"

// LocalDisk stores uploaded assets on the local filesystem under a single
// root directory. Stored files are referenced by their public path
// ("/uploads/<name>"), never by absolute filesystem path.
type LocalDisk struct {
	root string
}

// NewLocalDisk creates the root directory if needed and returns a disk store
func NewLocalDisk(root string) (*LocalDisk, error) {
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage: resolve working directory: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", root, err)
	}
	return &LocalDisk{root: root}, nil
}

// Root returns the absolute root directory of the store
func (d *LocalDisk) Root() string {
	return d.root
}

func (d *LocalDisk) abs(publicPath string) string {
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	name = strings.TrimLeft(name, "/")
	// Base strips any directory traversal left in the recorded path.
	return filepath.Join(d.root, filepath.Base(name))
}

// Save writes the content to a uniquely named file, keeping the original
// extension, and returns the public path to record on the product.
func (d *LocalDisk) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(d.root, name))
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}

	return path.Join(PublicPrefix, name), nil
}

// Remove deletes the file behind a recorded public path. A missing file is
// not an error.
func (d *LocalDisk) Remove(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	err := os.Remove(d.abs(publicPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", publicPath, err)
	}
	return nil
}

// Exists reports whether the file behind a recorded public path is on disk
func (d *LocalDisk) Exists(publicPath string) bool {
	_, err := os.Stat(d.abs(publicPath))
	return err == nil
}
