package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/observability"
)

func TestWriteDocument_Stdout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeDocument(&out, "", "doc.pdf", ".txt", "hello"))
	assert.Equal(t, "hello\n", out.String())
}

func TestWriteDocument_Dir(t *testing.T) {
	logger = observability.Nop()
	dir := t.TempDir()

	require.NoError(t, writeDocument(nil, dir, "brochure.pdf", ".html", "<div></div>"))

	got, err := os.ReadFile(filepath.Join(dir, "brochure.html"))
	require.NoError(t, err)
	assert.Equal(t, "<div></div>", string(got))
}

func TestWritePages_SkipsMissingSurfaces(t *testing.T) {
	dir := t.TempDir()
	surfaces := []image.Image{image.NewRGBA(image.Rect(0, 0, 2, 2)), nil, image.NewRGBA(image.Rect(0, 0, 3, 3))}

	err := writePages(dir, len(surfaces), func(i int) ([]byte, error) {
		return encodeCanvas(surfaces[i])
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"page-001.png", "page-003.png"}, names)
}

func TestSpinner_UpdateMessage(t *testing.T) {
	s := NewSpinner("Loading PDF engine...")
	assert.Equal(t, " Loading PDF engine...", s.spinner.Suffix)

	s.UpdateMessage(extractingMessage("brochure.pdf", domain.ModeHTML))
	assert.Equal(t, " Extracting brochure.pdf (html)...", s.spinner.Suffix)
}

func TestConsoleNotifier(t *testing.T) {
	var out bytes.Buffer
	NewConsoleNotifier(&out, true).Notify("Error", "No file selected.", domain.SeverityError)
	assert.Equal(t, "✗ Error: No file selected.\n", out.String())
}
