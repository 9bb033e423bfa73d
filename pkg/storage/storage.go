// Package storage keeps product images and quotation attachments. Callers
// only ever hold the object key; public URLs are derived on read.
package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey returns a collision free key that keeps the upload's extension.
func ObjectKey(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(filename)))
}

func publicURL(base, key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), url.PathEscape(key))
}

// keyOf accepts either a bare key or a URL produced by publicURL.
func keyOf(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(ref)
}
