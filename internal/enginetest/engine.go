// Package enginetest provides an in-memory document engine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spherical/pdf-reader/internal/domain"
)

// ErrOpen is a stock engine failure for Engine.OpenErr.
var ErrOpen = errors.New("enginetest: invalid PDF structure")

// PageSpec describes one fake page.
type PageSpec struct {
	Fragments []domain.TextFragment
	Width     int // points at scale 1, default 612
	Height    int // points at scale 1, default 792

	// Delay is slept before text or render results are returned, to force
	// completion order to differ from page order.
	Delay time.Duration

	TextErr   error
	RenderErr error
	PageErr   error
}

// Engine opens every buffer as the same configured document.
type Engine struct {
	Pages   []PageSpec
	OpenErr error

	opens  atomic.Int32
	closes atomic.Int32
}

// New returns an engine whose documents have the given pages.
func New(pages ...PageSpec) *Engine {
	return &Engine{Pages: pages}
}

// TextPage builds a page whose fragments are words laid out on one line.
func TextPage(words ...string) PageSpec {
	spec := PageSpec{}
	for i, w := range words {
		spec.Fragments = append(spec.Fragments, domain.TextFragment{
			Text:      w,
			Transform: [6]float64{12, 0, 0, 12, float64(72 + 40*i), 720},
		})
	}
	return spec
}

// Opens reports how many times Open was called.
func (e *Engine) Opens() int { return int(e.opens.Load()) }

// Closes reports how many documents were closed.
func (e *Engine) Closes() int { return int(e.closes.Load()) }

func (e *Engine) Open(ctx context.Context, data []byte) (domain.Document, error) {
	e.opens.Add(1)
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	return &Document{engine: e, pages: e.Pages}, nil
}

// Document is a fake opened document.
type Document struct {
	engine *Engine
	pages  []PageSpec
	once   sync.Once
}

func (d *Document) PageCount() int { return len(d.pages) }

func (d *Document) Page(ctx context.Context, index int) (domain.Page, error) {
	if index < 1 || index > len(d.pages) {
		return nil, fmt.Errorf("enginetest: page %d out of range", index)
	}
	spec := d.pages[index-1]
	if spec.PageErr != nil {
		return nil, spec.PageErr
	}
	return &Page{number: index, spec: spec}, nil
}

func (d *Document) Close() error {
	d.once.Do(func() { d.engine.closes.Add(1) })
	return nil
}

// Page is a fake page.
type Page struct {
	number int
	spec   PageSpec
}

func (p *Page) Number() int { return p.number }

func (p *Page) TextFragments(ctx context.Context) ([]domain.TextFragment, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if p.spec.TextErr != nil {
		return nil, p.spec.TextErr
	}
	out := make([]domain.TextFragment, len(p.spec.Fragments))
	copy(out, p.spec.Fragments)
	return out, nil
}

func (p *Page) Viewport(scale float64) (domain.Viewport, error) {
	w, h := p.spec.Width, p.spec.Height
	if w == 0 {
		w = 612
	}
	if h == 0 {
		h = 792
	}
	return domain.Viewport{
		Width:  int(float64(w) * scale),
		Height: int(float64(h) * scale),
		Scale:  scale,
	}, nil
}

// Render paints a solid surface whose red channel encodes the page number,
// so tests can tell pages apart after encoding.
func (p *Page) Render(ctx context.Context, vp domain.Viewport) (image.Image, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if p.spec.RenderErr != nil {
		return nil, p.spec.RenderErr
	}
	img := image.NewRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	c := color.RGBA{R: uint8(p.number), A: 255}
	for y := 0; y < vp.Height; y++ {
		for x := 0; x < vp.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (p *Page) wait(ctx context.Context) error {
	if p.spec.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(p.spec.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
