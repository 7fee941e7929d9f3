package pdf

import (
	"context"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"

	"github.com/spherical/pdf-reader/internal/domain"
)

// pointsPerInch is the PDF user-space resolution; scale 1 renders at 72 DPI.
const pointsPerInch = 72.0

// FitzEngine implements domain.Engine on MuPDF through go-fitz.
type FitzEngine struct{}

// NewFitzEngine creates a MuPDF-backed engine.
func NewFitzEngine() *FitzEngine {
	return &FitzEngine{}
}

// Open parses data in memory. The returned document is safe for concurrent
// page access; go-fitz serializes calls into MuPDF.
func (e *FitzEngine) Open(ctx context.Context, data []byte) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc, pages: doc.NumPage()}, nil
}

type fitzDocument struct {
	doc   *fitz.Document
	pages int
}

func (d *fitzDocument) PageCount() int {
	if d.pages < 0 {
		return 0
	}
	return d.pages
}

func (d *fitzDocument) Page(ctx context.Context, index int) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 1 || index > d.PageCount() {
		return nil, fmt.Errorf("page %d out of range 1..%d: %w", index, d.PageCount(), fitz.ErrPageMissing)
	}
	return &fitzPage{doc: d.doc, number: index}, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}

type fitzPage struct {
	doc    *fitz.Document
	number int
}

func (p *fitzPage) Number() int { return p.number }

func (p *fitzPage) TextFragments(ctx context.Context) ([]domain.TextFragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	markup, err := p.doc.HTML(p.number-1, false)
	if err != nil {
		return nil, err
	}
	return ParseFragments(markup)
}

func (p *fitzPage) Viewport(scale float64) (domain.Viewport, error) {
	bounds, err := p.doc.Bound(p.number - 1)
	if err != nil {
		return domain.Viewport{}, err
	}
	return domain.Viewport{
		Width:  int(math.Round(float64(bounds.Dx()) * scale)),
		Height: int(math.Round(float64(bounds.Dy()) * scale)),
		Scale:  scale,
	}, nil
}

func (p *fitzPage) Render(ctx context.Context, vp domain.Viewport) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.doc.ImageDPI(p.number-1, pointsPerInch*vp.Scale)
}

// ParseFragments recovers positioned text runs from MuPDF's structured-text
// HTML. Each <p> carries the line origin (top, left); each <span> inside it
// becomes one fragment with transform [size 0 0 size left top].
func ParseFragments(markup string) ([]domain.TextFragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}

	var fragments []domain.TextFragment
	doc.Find("p").Each(func(_ int, line *goquery.Selection) {
		lineStyle := parseStyle(line.AttrOr("style", ""))
		left := lineStyle["left"]
		top := lineStyle["top"]

		spans := line.Find("span")
		if spans.Length() == 0 {
			if text := line.Text(); strings.TrimSpace(text) != "" {
				fragments = append(fragments, fragment(text, lineStyle["line-height"], left, top))
			}
			return
		}

		spans.Each(func(_ int, span *goquery.Selection) {
			text := span.Text()
			if strings.TrimSpace(text) == "" {
				return
			}
			size := parseStyle(span.AttrOr("style", ""))["font-size"]
			fragments = append(fragments, fragment(text, size, left, top))
		})
	})

	return fragments, nil
}

func fragment(text string, size, left, top float64) domain.TextFragment {
	return domain.TextFragment{
		Text:      text,
		Transform: [6]float64{size, 0, 0, size, left, top},
	}
}

// parseStyle extracts the numeric declarations of an inline style. Units
// such as pt and px are dropped; non-numeric values are skipped.
func parseStyle(style string) map[string]float64 {
	out := make(map[string]float64)
	for _, decl := range strings.Split(style, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		value = strings.TrimRight(value, "abcdefghijklmnopqrstuvwxyz%")
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		out[key] = f
	}
	return out
}
