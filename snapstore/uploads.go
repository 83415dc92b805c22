package snapstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrBadFilename is returned for upload names that reduce to nothing.
var ErrBadFilename = errors.New("snapstore: bad filename")

// Uploads stores image files in a directory.
type Uploads struct {
	dir string
}

// NewUploads returns an upload area rooted at dir, creating it if needed.
func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Uploads{dir: dir}, nil
}

// Dir returns the upload directory.
func (u *Uploads) Dir() string { return u.dir }

// Put writes r under a collision-free name derived from name and returns
// the stored filename.
func (u *Uploads) Put(name string, r io.Reader) (string, error) {
	base := cleanName(name)
	if base == "" {
		return "", ErrBadFilename
	}
	stored := uuid.NewString() + "-" + base

	f, err := os.OpenFile(filepath.Join(u.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return stored, nil
}

// cleanName keeps the last path element and drops characters that would
// need escaping in a URL path.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
