// TrustGuardianHub | 2026
// store.go

package media

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/trustguardianhub/backend/internal/core"
)

// Store writes uploaded images into the public directory and builds the
// host-relative URLs handlers return. Filenames are generated, never taken
// from the client.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save sniffs the upload's content, rejects non-images, and writes it under a
// generated name of the form field-<uuid><ext>.
func (s *Store) Save(field string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close() //nolint:errcheck // read-only handle

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf(
			"only images are allowed, got %s: %w",
			contentType,
			core.ErrInvalidInput,
		)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("%s-%s%s", field, uuid.New().String(), ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()                              //nolint:errcheck // cleanup
		_ = os.Remove(filepath.Join(s.dir, name))    //nolint:errcheck // cleanup
		return "", fmt.Errorf("write media file: %w", err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}

	return name, nil
}

// Remove deletes a stored file. A missing file is logged and swallowed:
// row deletions must stay visible to callers regardless of disk state.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}

	// Generated names never contain separators; reject anything else.
	if filepath.Base(name) != name {
		slog.Warn("refusing to remove media path", "name", name)
		return
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("remove media file", "name", name, "error", err)
		}
	}
}

// RemoveAll removes each file in a comma-delimited image list.
func (s *Store) RemoveAll(delimited string) {
	for _, name := range SplitImageList(delimited) {
		s.Remove(name)
	}
}

// SplitImageList splits the comma-delimited image_url column value.
func SplitImageList(delimited string) []string {
	if delimited == "" {
		return nil
	}

	parts := strings.Split(delimited, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	return names
}

// JoinImageList renders filenames back into the stored column format.
func JoinImageList(names []string) string {
	return strings.Join(names, ",")
}

// PublicURL shapes {scheme}://{host}/public/{name} for a stored filename.
func PublicURL(r *http.Request, name string) string {
	if name == "" {
		return ""
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s/public/%s", scheme, r.Host, name)
}

// PublicURLs maps a delimited image list to absolute URLs.
func PublicURLs(r *http.Request, delimited string) []string {
	names := SplitImageList(delimited)
	urls := make([]string, 0, len(names))
	for _, n := range names {
		urls = append(urls, PublicURL(r, n))
	}
	return urls
}
