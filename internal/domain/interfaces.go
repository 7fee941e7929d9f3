package domain

import (
	"context"
	"image"
)

// Engine parses PDF byte streams into documents.
type Engine interface {
	// Open parses the header and cross-reference structure of data.
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is an opened PDF. It is owned by the run that opened it.
type Document interface {
	PageCount() int

	// Page returns the page at index, 1-based.
	Page(ctx context.Context, index int) (Page, error)

	Close() error
}

// Page is one page of a Document.
type Page interface {
	Number() int

	// TextFragments returns the positioned text runs in reading order.
	TextFragments(ctx context.Context) ([]TextFragment, error)

	// Viewport returns the page frame at the given zoom scale.
	Viewport(scale float64) (Viewport, error)

	// Render rasterizes the page into a surface sized by vp.
	Render(ctx context.Context, vp Viewport) (image.Image, error)
}

// Notifier delivers user-facing notifications. Fire and forget.
type Notifier interface {
	Notify(title, message string, severity Severity)
}
