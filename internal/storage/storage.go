package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go-presensi/internal/model"
)

// PhotoStore keeps check-in photos. Save returns the reference recorded on
// the presensi row; Delete accepts that same reference.
type PhotoStore interface {
	Save(ctx context.Context, key string, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Storage is the local filesystem PhotoStore. Files are served back under
// publicPath by the router.
type Storage struct {
	validator  *PathValidator
	publicPath string
}

func (s *Storage) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *Storage) PublicPath() string {
	return s.publicPath
}

func New(root string, publicPath string) (*Storage, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	publicPath = "/" + strings.Trim(strings.TrimSpace(publicPath), "/")

	return &Storage{validator: validator, publicPath: publicPath}, nil
}

func (s *Storage) Resolve(key string) (string, error) {
	return s.validator.ResolvePath(key)
}

// Save writes data to a temporary file beside the target and renames it
// into place, so a reader never observes a partial photo.
func (s *Storage) Save(ctx context.Context, key string, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resolved, err := s.Resolve(key)
	if err != nil {
		return "", err
	}
	if resolved == s.RootAbs() {
		return "", fmt.Errorf("photo key %q resolves to storage root", key)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(resolved), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close photo: %w", err)
	}

	if err := os.Rename(tmpName, resolved); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename photo into place: %w", err)
	}

	return path.Join(s.publicPath, strings.TrimPrefix(key, "/")), nil
}

func (s *Storage) Delete(_ context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.publicPath+"/")
	if !ok {
		return fmt.Errorf("photo reference %q is not under %s", ref, s.publicPath)
	}

	resolved, err := s.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil {
		if os.IsNotExist(err) {
			return model.ErrPhotoNotFound
		}
		return fmt.Errorf("remove photo: %w", err)
	}

	return nil
}

var _ PhotoStore = (*Storage)(nil)
