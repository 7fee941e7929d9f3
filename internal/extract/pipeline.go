// Package extract turns an opened document into the output of one mode.
package extract

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/observability"
)

const (
	pageSeparator     = "\n\n"
	fragmentSeparator = " "
)

// CanvasSink receives canvas-mode output: the placeholder list first, then
// one surface per successfully rendered page, in any order.
type CanvasSink interface {
	Prepare(placeholders []domain.PagePlaceholder)
	Draw(id int, surface image.Image)
}

// Config holds pipeline settings.
type Config struct {
	Scale           float64
	PageConcurrency int
}

// Pipeline runs the per-mode page processing.
type Pipeline struct {
	scale       float64
	concurrency int
	logger      *observability.Logger
}

// NewPipeline creates a pipeline. Zero config values use scale 1.5 and four workers.
func NewPipeline(cfg Config, logger *observability.Logger) *Pipeline {
	if cfg.Scale <= 0 {
		cfg.Scale = domain.RenderScale
	}
	if cfg.PageConcurrency < 1 {
		cfg.PageConcurrency = 4
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Pipeline{
		scale:       cfg.Scale,
		concurrency: cfg.PageConcurrency,
		logger:      logger.WithComponent("pipeline"),
	}
}

// Run produces the result for mode. Text, HTML and image modes abort on the
// first page failure and return no partial result. Canvas mode tolerates
// per-page render failures; those pages are logged and left blank in sink.
func (p *Pipeline) Run(ctx context.Context, doc domain.Document, mode domain.Mode, sink CanvasSink) (*domain.Result, error) {
	start := time.Now()
	result := &domain.Result{Mode: mode}

	var err error
	switch mode {
	case domain.ModeCanvas:
		result.Canvases, err = p.canvases(ctx, doc, sink)
	case domain.ModeText:
		result.Text, err = p.text(ctx, doc)
	case domain.ModeHTML:
		result.HTML, err = p.html(ctx, doc)
	case domain.ModeImage:
		result.Images, err = p.images(ctx, doc)
	default:
		return nil, domain.ExtractionError("no output mode selected", nil)
	}
	if err != nil {
		return nil, domain.ExtractionError(fmt.Sprintf("Error extracting %s", mode), err)
	}

	p.logger.Debug().
		Str("mode", mode.String()).
		Int("pages", doc.PageCount()).
		Dur("elapsed", time.Since(start)).
		Msg("extraction complete")

	return result, nil
}

func (p *Pipeline) text(ctx context.Context, doc domain.Document) (string, error) {
	pages, err := collect(ctx, doc, p.concurrency, func(ctx context.Context, page domain.Page) (string, error) {
		frags, err := page.TextFragments(ctx)
		if err != nil {
			return "", err
		}
		return PageText(frags), nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(pages, pageSeparator), nil
}

func (p *Pipeline) html(ctx context.Context, doc domain.Document) (string, error) {
	pages, err := collect(ctx, doc, p.concurrency, func(ctx context.Context, page domain.Page) (string, error) {
		frags, err := page.TextFragments(ctx)
		if err != nil {
			return "", err
		}
		return PageHTML(frags), nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(pages, ""), nil
}

func (p *Pipeline) images(ctx context.Context, doc domain.Document) ([]string, error) {
	return collect(ctx, doc, p.concurrency, func(ctx context.Context, page domain.Page) (string, error) {
		surface, err := p.render(ctx, page)
		if err != nil {
			return "", err
		}
		return EncodeDataURL(surface)
	})
}

// canvases fetches every page handle first (any failure aborts, as with
// document loading), publishes the placeholders, then renders each page
// independently.
func (p *Pipeline) canvases(ctx context.Context, doc domain.Document, sink CanvasSink) ([]domain.PagePlaceholder, error) {
	pages, err := collect(ctx, doc, p.concurrency, func(ctx context.Context, page domain.Page) (domain.Page, error) {
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	placeholders := make([]domain.PagePlaceholder, len(pages))
	for i := range pages {
		placeholders[i] = domain.PagePlaceholder{ID: i + 1}
	}
	if sink == nil {
		return placeholders, nil
	}
	sink.Prepare(placeholders)

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, page := range pages {
		id := placeholders[i].ID
		g.Go(func() error {
			surface, err := p.render(ctx, page)
			if err != nil {
				p.logger.Error().Err(err).Int("page", id).Msg("Error rendering page")
				return nil
			}
			sink.Draw(id, surface)
			p.logger.Debug().Int("page", id).Msg("Page rendered on canvas.")
			return nil
		})
	}
	_ = g.Wait()

	return placeholders, nil
}

func (p *Pipeline) render(ctx context.Context, page domain.Page) (image.Image, error) {
	vp, err := page.Viewport(p.scale)
	if err != nil {
		return nil, fmt.Errorf("viewport: %w", err)
	}
	return page.Render(ctx, vp)
}

// collect runs fn for pages 1..n concurrently and returns the results in
// page order. Each worker writes only its own slot. The first error cancels
// the remaining work.
func collect[T any](ctx context.Context, doc domain.Document, limit int, fn func(context.Context, domain.Page) (T, error)) ([]T, error) {
	n := doc.PageCount()
	out := make([]T, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			page, err := doc.Page(gctx, i+1)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			v, err := fn(gctx, page)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
