package present

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/enginetest"
	"github.com/spherical/pdf-reader/internal/extract"
	"github.com/spherical/pdf-reader/internal/observability"
	"github.com/spherical/pdf-reader/internal/pdf"
)

type fixture struct {
	adapter *Adapter
	engine  *enginetest.Engine
	boot    *pdf.Bootstrapper
	sink    *memoryNotifier
}

type memoryNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (m *memoryNotifier) Notify(title, message string, severity domain.Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, title+": "+message)
}

func (m *memoryNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newFixture(t *testing.T, pages ...enginetest.PageSpec) *fixture {
	t.Helper()
	engine := enginetest.New(pages...)
	boot := pdf.NewBootstrapper(func(context.Context) error { return nil })
	sink := &memoryNotifier{}
	adapter := NewAdapter(Deps{
		Validator: pdf.NewValidator("", 1),
		Loader:    pdf.NewLoader(engine, nil),
		Pipeline:  extract.NewPipeline(extract.Config{}, nil),
		Bootstrap: boot,
		Notifier:  sink,
	})
	require.NoError(t, adapter.Bootstrap(context.Background()))
	return &fixture{adapter: adapter, engine: engine, boot: boot, sink: sink}
}

func pdfFile() *domain.SourceFile {
	data := pdf.BuildSample([][]string{{"x"}})
	return &domain.SourceFile{Name: "doc.pdf", ContentType: "application/pdf", Size: int64(len(data)), Data: data}
}

func TestAdapter_ModeExclusivity(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, domain.ModeNone, f.adapter.Mode())

	for _, m := range domain.Modes {
		f.adapter.SelectMode(m)
		active := 0
		for _, other := range domain.Modes {
			if f.adapter.Mode() == other {
				active++
			}
		}
		assert.Equal(t, 1, active)
		assert.Equal(t, m, f.adapter.Mode())
	}
}

func TestAdapter_RunFillsOnlyItsSlot(t *testing.T) {
	f := newFixture(t, enginetest.TextPage("alpha", "beta"), enginetest.TextPage("gamma"))
	require.NoError(t, f.adapter.SetFile(pdfFile()))
	ctx := context.Background()

	_, err := f.adapter.Run(ctx, domain.ModeText)
	require.NoError(t, err)
	assert.Equal(t, "alpha beta\n\ngamma", f.adapter.Text())
	assert.Empty(t, f.adapter.HTML())
	assert.Empty(t, f.adapter.Images())
	assert.Empty(t, f.adapter.Canvases())

	_, err = f.adapter.Run(ctx, domain.ModeHTML)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeHTML, f.adapter.Mode())
	assert.Equal(t, 2, strings.Count(f.adapter.HTML(), `<div class="pdf-page">`))
	assert.Equal(t, "alpha beta\n\ngamma", f.adapter.Text(), "text slot untouched")

	_, err = f.adapter.Run(ctx, domain.ModeImage)
	require.NoError(t, err)
	assert.Len(t, f.adapter.Images(), 2)

	_, err = f.adapter.Run(ctx, domain.ModeCanvas)
	require.NoError(t, err)
	canvases := f.adapter.Canvases()
	require.Len(t, canvases, 2)
	for i, c := range canvases {
		assert.Equal(t, i+1, c.ID)
		assert.NotNil(t, c.Surface)
	}
	img, ok := f.adapter.Canvas(2)
	require.True(t, ok)
	assert.Equal(t, 918, img.Bounds().Dx())

	assert.Equal(t, 4, f.engine.Opens())
	assert.Equal(t, 4, f.engine.Closes(), "every run closes its document")
	assert.False(t, f.adapter.Loading())
}

func TestAdapter_ValidationFailureNotifies(t *testing.T) {
	f := newFixture(t)

	err := f.adapter.SetFile(&domain.SourceFile{Name: "a.png", ContentType: "image/png", Size: 10})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = f.adapter.Run(context.Background(), domain.ModeText)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Equal(t, domain.ModeText, f.adapter.Mode(), "mode selected even when the run is rejected")
	assert.Zero(t, f.engine.Opens(), "engine never called")

	toasts := f.adapter.Notifications()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Error", toasts[0].Title)
	assert.Equal(t, "Invalid file type. Please upload a PDF file.", toasts[0].Message)
	assert.Equal(t, domain.SeverityError, toasts[0].Severity)
	assert.Equal(t, 2, f.sink.count(), "forwarded to the external sink")

	_, ok := f.adapter.Preview()
	assert.False(t, ok)
}

func TestAdapter_NoFileSelected(t *testing.T) {
	f := newFixture(t)

	_, err := f.adapter.Run(context.Background(), domain.ModeCanvas)
	assert.ErrorIs(t, err, domain.ErrNoFileSelected)
	require.Len(t, f.adapter.Notifications(), 1)
	assert.Equal(t, "No file selected.", f.adapter.Notifications()[0].Message)
}

func TestAdapter_NotReady(t *testing.T) {
	adapter := NewAdapter(Deps{
		Validator: pdf.NewValidator("", 1),
		Loader:    pdf.NewLoader(enginetest.New(), nil),
		Pipeline:  extract.NewPipeline(extract.Config{}, nil),
		Bootstrap: pdf.NewBootstrapper(func(context.Context) error { return nil }),
	})
	require.NoError(t, adapter.SetFile(pdfFile()))

	_, err := adapter.Run(context.Background(), domain.ModeText)
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.False(t, adapter.Loading())
}

func TestAdapter_BootstrapFailure(t *testing.T) {
	adapter := NewAdapter(Deps{
		Bootstrap: pdf.NewBootstrapper(func(context.Context) error { return errors.New("no mupdf") }),
	})
	err := adapter.Bootstrap(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeState))
	assert.False(t, adapter.Ready())
}

func TestAdapter_BusyGate(t *testing.T) {
	slow := enginetest.TextPage("slow")
	slow.Delay = 200 * time.Millisecond
	f := newFixture(t, slow)
	require.NoError(t, f.adapter.SetFile(pdfFile()))

	done := make(chan error, 1)
	go func() {
		_, err := f.adapter.Run(context.Background(), domain.ModeText)
		done <- err
	}()

	require.Eventually(t, f.adapter.Loading, time.Second, time.Millisecond)
	_, err := f.adapter.Run(context.Background(), domain.ModeHTML)
	assert.ErrorIs(t, err, domain.ErrBusy)

	require.NoError(t, <-done)
	assert.False(t, f.adapter.Loading())
	assert.Equal(t, "slow", f.adapter.Text())
}

func TestAdapter_FailureNotificationAsymmetry(t *testing.T) {
	tests := []struct {
		mode       domain.Mode
		wantToasts int
	}{
		{domain.ModeCanvas, 1},
		{domain.ModeImage, 1},
		{domain.ModeText, 0},
		{domain.ModeHTML, 0},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			f := newFixture(t)
			f.engine.OpenErr = enginetest.ErrOpen
			require.NoError(t, f.adapter.SetFile(pdfFile()))

			_, err := f.adapter.Run(context.Background(), tt.mode)
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
			assert.False(t, f.adapter.Loading(), "loading cleared after failure")
			assert.Len(t, f.adapter.Notifications(), tt.wantToasts)
		})
	}
}

func TestAdapter_ExtractionFailureKeepsPreviousSlot(t *testing.T) {
	page := enginetest.TextPage("kept")
	f := newFixture(t, page)
	require.NoError(t, f.adapter.SetFile(pdfFile()))
	_, err := f.adapter.Run(context.Background(), domain.ModeText)
	require.NoError(t, err)

	f.engine.Pages[0].TextErr = errors.New("broken page")
	_, err = f.adapter.Run(context.Background(), domain.ModeText)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExtraction))
	assert.Equal(t, "kept", f.adapter.Text())

	f.engine.Pages[0].TextErr = nil
	_, err = f.adapter.Run(context.Background(), domain.ModeText)
	assert.NoError(t, err, "adapter is re-triggerable after failure")
}

func TestAdapter_HTMLDocumentAndPreview(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, `<div class="html-container"></div>`, f.adapter.HTMLDocument())
	assert.Equal(t, "No text extracted yet.", f.adapter.TextPreview())

	file := pdfFile()
	require.NoError(t, f.adapter.SetFile(file))
	_, err := f.adapter.Run(context.Background(), domain.ModeHTML)
	require.NoError(t, err)
	assert.Equal(t, `<div class="html-container"></div>`, f.adapter.HTMLDocument(), "zero pages keep the container empty")

	got, ok := f.adapter.Preview()
	require.True(t, ok)
	assert.Equal(t, file.Data, got.Data)

	f.adapter.Close()
	_, ok = f.adapter.Preview()
	assert.False(t, ok)
	assert.Equal(t, domain.ModeNone, f.adapter.Mode())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Format: "json", Output: &buf})

	NewLogNotifier(logger).Notify("Error", "No file selected.", domain.SeverityError)

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"title":"Error"`)
	assert.Contains(t, out, "No file selected.")
}
