package pdf

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/enginetest"
)

func TestLoader_Open(t *testing.T) {
	engine := enginetest.New(enginetest.TextPage("a"), enginetest.TextPage("b"))
	loader := NewLoader(engine, nil)

	doc, err := loader.Open(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, 1, engine.Opens())
}

func TestLoader_ZeroPages(t *testing.T) {
	doc, err := NewLoader(enginetest.New(), nil).Open(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.PageCount())
}

func TestLoader_WrapsEngineFailure(t *testing.T) {
	engine := &enginetest.Engine{OpenErr: enginetest.ErrOpen}

	_, err := NewLoader(engine, nil).Open(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
	assert.True(t, errors.Is(err, enginetest.ErrOpen), "engine cause stays reachable")
}

func TestBuildSample_Structure(t *testing.T) {
	data := BuildSample([][]string{{"one (1)"}, {"two"}})

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
	assert.Contains(t, string(data), "/Count 2")
	assert.Contains(t, string(data), `(one \(1\)) Tj`)

	// Every xref entry must point at the matching "N 0 obj" header.
	m := regexp.MustCompile(`startxref\n(\d+)\n`).FindSubmatch(data)
	require.NotNil(t, m)
	xref, err := strconv.Atoi(string(m[1]))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data[xref:], []byte("xref\n0 8\n")))

	entries := regexp.MustCompile(`(\d{10}) 00000 n `).FindAllSubmatch(data[xref:], -1)
	require.Len(t, entries, 7)
	for i, e := range entries {
		off, err := strconv.Atoi(string(e[1]))
		require.NoError(t, err)
		header := []byte(strconv.Itoa(i+1) + " 0 obj")
		assert.True(t, bytes.HasPrefix(data[off:], header), "object %d offset", i+1)
	}
}
