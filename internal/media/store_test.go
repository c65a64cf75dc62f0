// TrustGuardianHub | 2026
// store_test.go

package media

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File[field]
	require.Len(t, files, 1)
	return files[0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveStoresImageUnderGeneratedName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	fh := fileHeader(t, "report", "incident.png", pngBytes(t))

	name, err := store.Save("report", fh)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "report-"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	_, err = os.Stat(filepath.Join(store.Dir(), name))
	assert.NoError(t, err)
}

func TestSaveRejectsNonImageContent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	fh := fileHeader(t, "report", "evil.png", []byte("#!/bin/sh\necho pwned"))

	_, err = store.Save("report", fh)
	require.Error(t, err)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// Must not panic or leave anything behind.
	store.Remove("never-existed.png")
	store.Remove("")
}

func TestRemoveRefusesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	store, err := NewStore(filepath.Join(dir, "public"))
	require.NoError(t, err)

	store.Remove("../outside.txt")

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestSplitAndJoinImageList(t *testing.T) {
	names := SplitImageList("a.png,b.jpg, c.webp ,")
	assert.Equal(t, []string{"a.png", "b.jpg", "c.webp"}, names)

	assert.Nil(t, SplitImageList(""))

	assert.Equal(t, "a.png,b.jpg", JoinImageList([]string{"a.png", "b.jpg"}))
}

func TestRemoveAllClearsEveryListedFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"x.png", "y.png"} {
		path := filepath.Join(store.Dir(), name)
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	}

	store.RemoveAll("x.png,y.png,missing.png")

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublicURL(t *testing.T) {
	r := httptest.NewRequest("GET", "http://localhost:8080/api/reports", nil)
	assert.Equal(
		t,
		"http://localhost:8080/public/a.png",
		PublicURL(r, "a.png"),
	)
	assert.Empty(t, PublicURL(r, ""))

	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(
		t,
		"https://localhost:8080/public/a.png",
		PublicURL(r, "a.png"),
	)
}

func TestPublicURLs(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)

	urls := PublicURLs(r, "a.png,b.png")
	assert.Equal(t, []string{
		"http://example.com/public/a.png",
		"http://example.com/public/b.png",
	}, urls)
}
