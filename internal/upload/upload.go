// Package upload is the image intake for product listings: it persists an
// uploaded binary under the upload directory and returns the public URL the
// stored file is served from.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// Store writes uploaded files to a directory on local disk.
//
// FILENAME GENERATION:
// Stored names are "<xid><original extension>", e.g. "cv37rs3pp9olc6a.png".
// xids are globally unique even when generated in the same nanosecond, so
// two customers uploading "cover.png" at the same instant can never collide
// — a timestamp-based name cannot make that guarantee.
//
// The original filename is untrusted client input; only its extension is
// kept (and only the extension of the final path element, so "../../x.png"
// contributes ".png" and nothing else).
type Store struct {
	dir string // filesystem directory files are written to
	url string // public URL prefix, e.g. "/uploads"
}

// NewStore creates a Store writing into dir, served under urlPrefix.
// The directory is created up front so the first upload can't fail on a
// missing path.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating directory %s: %w", dir, err)
	}
	return &Store{dir: dir, url: urlPrefix}, nil
}

// Dir returns the filesystem directory the store writes to.
// The server mounts a file server on it for GET /uploads/*.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists the file contents and returns the public URL
// ("/uploads/<generated name>").
//
// No size or content-type validation happens here — the route accepts
// whatever the authenticated seller uploads. Anything beyond that (image
// sniffing, size caps) belongs in the handler if it's ever needed.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	ext := filepath.Ext(filepath.Base(originalName))
	name := xid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("upload: creating %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("upload: writing %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("upload: closing %s: %w", name, err)
	}

	return s.url + "/" + name, nil
}
