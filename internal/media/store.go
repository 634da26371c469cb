package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	// Registered formats accepted for post images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/scribe-social/scribe/pkg/config"
)

var (
	// ErrNotAnImage is returned when an upload is not a decodable image
	ErrNotAnImage = errors.New("file is not a valid image")
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("file exceeds the upload size limit")
)

// Store saves validated post images on local disk
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates a media store rooted at the configured directory
func NewStore(cfg *config.MediaConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Store{
		dir:      cfg.Dir,
		maxBytes: int64(cfg.MaxUploadMB) << 20,
	}, nil
}

// DetectFormat decodes just enough of the stream to identify the image
// format, then rewinds. A stream that no registered decoder accepts is not
// an image, whatever its filename says.
func DetectFormat(r io.ReadSeeker) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", ErrNotAnImage
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return format, nil
}

// Save validates and stores an uploaded image, returning the stored file
// name. Nothing is written for a rejected upload.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	format, err := DetectFormat(src)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + "." + format
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return name, nil
}

// Remove deletes a stored image. A missing file is a no-op.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir returns the root of the media store, for static file serving
func (s *Store) Dir() string {
	return s.dir
}
