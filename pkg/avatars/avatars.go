// Package avatars stores uploaded book and user avatar images on disk.
package avatars

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/libracat/libracat/pkg/errcodes"
	"github.com/libracat/libracat/pkg/metrics"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // register decoder
)

// MaxSize is the largest accepted upload, in bytes.
const MaxSize = 5 << 20

// Placeholder is served whenever a record has no avatar.
const Placeholder = "/static/null-image.svg"

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Store struct {
	dir string
}

// NewStore makes sure dir exists and is writable.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create upload directory: %s", dir)
	}
	return &Store{dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save validates the upload and writes it under a fresh name, which it
// returns. Only the name is meant to be persisted.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxSize {
		metrics.RecordAvatarUpload(false)
		return "", errcodes.ValidationError(`"avatar" must be 5 MB or smaller`)
	}

	src, err := fh.Open()
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxSize+1))
	if err != nil {
		return "", errors.WithStack(err)
	}
	if len(data) > MaxSize {
		metrics.RecordAvatarUpload(false)
		return "", errcodes.ValidationError(`"avatar" must be 5 MB or smaller`)
	}

	ext, err := sniff(data)
	if err != nil {
		metrics.RecordAvatarUpload(false)
		return "", err
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return "", errors.WithStack(err)
	}

	metrics.RecordAvatarUpload(true)
	return name, nil
}

// sniff returns the file extension for data, or a validation error when data
// isn't a well-formed image of an allowed type.
func sniff(data []byte) (string, error) {
	mtype := mimetype.Detect(data)
	ext, ok := allowed[mtype.String()]
	if !ok {
		return "", errcodes.ValidationError(`"avatar" must be a JPEG, PNG, GIF or WebP image`)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", errcodes.ValidationError(`"avatar" is not a readable image`)
	}
	return ext, nil
}

// Remove deletes a previously saved file. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" || filepath.Base(name) != name {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(err)
	}
	return nil
}

// URL is where the web server exposes an avatar, or the placeholder.
func URL(name *string) string {
	if name == nil || *name == "" {
		return Placeholder
	}
	return "/uploads/" + *name
}
