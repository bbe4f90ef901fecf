// Package attachments stores transaction attachments on the local
// filesystem, one file per transaction, named by transaction id.
package attachments

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for content types outside the allowlist.
var ErrUnsupportedType = errors.New("only PDF, JPEG, PNG, CSV, and XLSX files are allowed")

// ErrNotFound is returned when no attachment file exists for a transaction.
var ErrNotFound = errors.New("attachment not found")

// mimeExtensions maps allowed content types to on-disk extensions.
var mimeExtensions = map[string]string{
	"application/pdf": ".pdf",
	"application/csv": ".csv",
	"text/csv":        ".csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// FileStore saves, opens, and deletes attachment files under a base
// directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachments dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Extension validates contentType against the allowlist and returns the
// extension to store the file under.
func Extension(contentType string) (string, error) {
	ext, ok := mimeExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// Save writes the attachment for txID and returns its path. An existing
// attachment for the same transaction is replaced, even when the new file
// stores under a different extension.
func (fs *FileStore) Save(txID uuid.UUID, contentType string, r io.Reader) (string, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}
	if err := fs.Delete(txID); err != nil {
		return "", err
	}
	path := fs.path(txID, ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return path, nil
}

// Open returns a reader over the attachment stored for txID with the given
// content type. The caller closes it.
func (fs *FileStore) Open(txID uuid.UUID, contentType string) (io.ReadCloser, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fs.path(txID, ext))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes any stored attachment file for txID, regardless of type.
func (fs *FileStore) Delete(txID uuid.UUID) error {
	for _, ext := range mimeExtensions {
		path := fs.path(txID, ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Probe verifies the directory is writable, for health checks.
func (fs *FileStore) Probe() error {
	path := filepath.Join(fs.dir, "healthcheck.tmp")
	if err := os.WriteFile(path, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(path)
}

func (fs *FileStore) path(txID uuid.UUID, ext string) string {
	return filepath.Join(fs.dir, txID.String()+ext)
}
