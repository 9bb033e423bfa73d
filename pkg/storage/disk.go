package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk keeps assets in a local directory served under baseURL. Used when
// R2 is not configured.
type Disk struct {
	dir     string
	baseURL string
}

func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: baseURL}, nil
}

// PutAsset writes body under a fresh key. A failed write leaves no file behind.
func (d *Disk) PutAsset(ctx context.Context, filename string, body io.Reader, _ string) (string, error) {
	key := ObjectKey(filename)
	path := filepath.Join(d.dir, key)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create asset: %w", err)
	}
	_, err = io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write asset: %w", err)
	}
	return key, nil
}

func (d *Disk) DeleteAsset(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, keyOf(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) DeleteAssets(ctx context.Context, keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := d.DeleteAsset(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Disk) URLFor(key string) string {
	return publicURL(d.baseURL, key)
}

// Dir is the directory assets are written to.
func (d *Disk) Dir() string {
	return d.dir
}
