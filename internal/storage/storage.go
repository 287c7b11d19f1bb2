// Package storage keeps avatar images on a local filesystem. It backs the
// avatar store when no hosted bucket is configured.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/nfrund/opin/internal/domain"
	"github.com/spf13/afero"
)

// ErrInvalidName is returned for names that would leave the store root.
var ErrInvalidName = errors.New("storage: invalid file name")

// AferoStore is an afero-backed implementation of domain.AvatarStore. Files
// live flat under dir and are served below urlPrefix.
type AferoStore struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

var _ domain.AvatarStore = (*AferoStore)(nil)

// NewAferoStore creates a new AferoStore.
func NewAferoStore(fs afero.Fs, dir, urlPrefix string) *AferoStore {
	return &AferoStore{fs: fs, dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *AferoStore) resolve(name string) (string, error) {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `\`) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return path.Join(s.dir, name), nil
}

// Upload writes the content of the reader under name, replacing any file of
// the same name.
func (s *AferoStore) Upload(ctx context.Context, name string, r io.Reader, contentType string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create avatar dir: %w", err)
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(p)
		return fmt.Errorf("write avatar: %w", err)
	}
	return f.Close()
}

// Remove deletes name. A missing file is not an error.
func (s *AferoStore) Remove(ctx context.Context, name string) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PublicURL is the address the file handler serves name at.
func (s *AferoStore) PublicURL(name string) string {
	return s.urlPrefix + "/" + name
}

// Open opens a stored file for reading.
func (s *AferoStore) Open(ctx context.Context, name string) (afero.File, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.fs.OpenFile(p, os.O_RDONLY, 0)
}
