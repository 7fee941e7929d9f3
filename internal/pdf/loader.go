package pdf

import (
	"context"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/observability"
)

// Loader opens byte buffers into documents through an engine.
type Loader struct {
	engine domain.Engine
	logger *observability.Logger
}

// NewLoader creates a loader over engine.
func NewLoader(engine domain.Engine, logger *observability.Logger) *Loader {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Loader{engine: engine, logger: logger.WithComponent("loader")}
}

// Open parses data. Engine failures, including malformed and encrypted
// documents, surface as one opaque load error. A zero-page document is valid.
func (l *Loader) Open(ctx context.Context, data []byte) (domain.Document, error) {
	doc, err := l.engine.Open(ctx, data)
	if err != nil {
		l.logger.Error().Err(err).Int("bytes", len(data)).Msg("Error loading PDF")
		return nil, domain.LoadError("Error loading PDF", err)
	}

	l.logger.Debug().Int("pages", doc.PageCount()).Msgf("PDF loaded with %d pages.", doc.PageCount())
	return doc, nil
}
