// Package present holds the per-instance presentation state of the reader:
// the selected mode, the loading gate, and the four output slots.
package present

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/extract"
	"github.com/spherical/pdf-reader/internal/observability"
)

// HTMLContainerClass wraps the HTML slot when rendered as a document.
const HTMLContainerClass = "html-container"

// Bootstrap gates the engine's one-time initialization.
type Bootstrap interface {
	Ensure(ctx context.Context) error
	Ready() bool
}

// Validator checks a selected file.
type Validator interface {
	Validate(file *domain.SourceFile) (*domain.SourceFile, error)
}

// Opener turns bytes into a document.
type Opener interface {
	Open(ctx context.Context, data []byte) (domain.Document, error)
}

// Runner runs the extraction pipeline.
type Runner interface {
	Run(ctx context.Context, doc domain.Document, mode domain.Mode, sink extract.CanvasSink) (*domain.Result, error)
}

// Deps are the collaborators of an Adapter. Notifier is optional; the
// adapter always keeps its own notification list.
type Deps struct {
	Validator Validator
	Loader    Opener
	Pipeline  Runner
	Bootstrap Bootstrap
	Notifier  domain.Notifier
	Logger    *observability.Logger
}

// Canvas is one canvas slot. Surface stays nil until the page renders.
type Canvas struct {
	ID      int
	Surface image.Image
}

// Adapter is one reader instance. Instances share nothing but the bootstrap.
type Adapter struct {
	deps   Deps
	logger *observability.Logger

	mu       sync.Mutex
	mode     domain.Mode
	loading  bool
	source   *domain.SourceFile
	canvases []Canvas
	text     string
	html     string
	images   []string
	toasts   []domain.Notification
}

// NewAdapter creates an adapter with empty slots and no mode selected.
func NewAdapter(deps Deps) *Adapter {
	logger := deps.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Adapter{deps: deps, logger: logger.WithComponent("presentation")}
}

// Bootstrap waits for the engine to become usable.
func (a *Adapter) Bootstrap(ctx context.Context) error {
	if err := a.deps.Bootstrap.Ensure(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error loading PDF engine")
		return domain.StateError("engine bootstrap failed", err)
	}
	a.logger.Debug().Msg("PDF engine loaded successfully.")
	return nil
}

// Ready reports whether the pipeline may be invoked.
func (a *Adapter) Ready() bool {
	return a.deps.Bootstrap.Ready()
}

// SelectMode makes m the only active mode.
func (a *Adapter) SelectMode(m domain.Mode) {
	a.mu.Lock()
	a.mode = m
	a.mu.Unlock()
}

// Mode returns the active mode.
func (a *Adapter) Mode() domain.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Loading reports whether an extraction is in flight.
func (a *Adapter) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// SetFile replaces the selected file. The file is kept even when it fails
// validation so later runs report the same problem; only valid files can
// be previewed.
func (a *Adapter) SetFile(file *domain.SourceFile) error {
	a.mu.Lock()
	a.source = file
	a.mu.Unlock()

	if _, err := a.deps.Validator.Validate(file); err != nil {
		a.rejectFile(err)
		return err
	}
	return nil
}

// Preview returns the selected file when it is a valid upload.
func (a *Adapter) Preview() (*domain.SourceFile, bool) {
	a.mu.Lock()
	file := a.source
	a.mu.Unlock()

	if _, err := a.deps.Validator.Validate(file); err != nil {
		return nil, false
	}
	return file, true
}

// Run selects mode and extracts the current file into that mode's slot.
// The other slots are left untouched. Runs do not overlap: a call made
// while another is loading fails with ErrBusy.
func (a *Adapter) Run(ctx context.Context, mode domain.Mode) (*domain.Result, error) {
	a.SelectMode(mode)

	a.mu.Lock()
	file := a.source
	a.mu.Unlock()

	if _, err := a.deps.Validator.Validate(file); err != nil {
		a.rejectFile(err)
		return nil, err
	}

	if !a.Ready() {
		a.logger.Error().Str("mode", mode.String()).Msg("PDF engine not initialized.")
		return nil, domain.StateError("cannot extract", domain.ErrNotReady)
	}

	if !a.beginLoading() {
		return nil, domain.StateError("cannot extract", domain.ErrBusy)
	}
	defer a.endLoading()

	doc, err := a.deps.Loader.Open(ctx, file.Data)
	if err != nil {
		a.failRun(mode, err)
		return nil, err
	}
	defer doc.Close()

	result, err := a.deps.Pipeline.Run(ctx, doc, mode, a)
	if err != nil {
		a.failRun(mode, err)
		return nil, err
	}

	a.apply(result)
	a.logger.Info().Str("mode", mode.String()).Int("pages", doc.PageCount()).Msg("extraction finished")
	return result, nil
}

// Prepare implements extract.CanvasSink.
func (a *Adapter) Prepare(placeholders []domain.PagePlaceholder) {
	canvases := make([]Canvas, len(placeholders))
	for i, p := range placeholders {
		canvases[i] = Canvas{ID: p.ID}
	}
	a.mu.Lock()
	a.canvases = canvases
	a.mu.Unlock()
}

// Draw implements extract.CanvasSink. Surfaces for unknown IDs are dropped.
func (a *Adapter) Draw(id int, surface image.Image) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.canvases {
		if a.canvases[i].ID == id {
			a.canvases[i].Surface = surface
			return
		}
	}
}

// Canvas returns the rendered surface of canvas id.
func (a *Adapter) Canvas(id int) (image.Image, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range a.canvases {
		if c.ID == id && c.Surface != nil {
			return c.Surface, true
		}
	}
	return nil, false
}

// Canvases returns a copy of the canvas slot.
func (a *Adapter) Canvases() []Canvas {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Canvas, len(a.canvases))
	copy(out, a.canvases)
	return out
}

// Text returns the text slot.
func (a *Adapter) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text
}

// TextPreview returns the text slot or a placeholder message when empty.
func (a *Adapter) TextPreview() string {
	if t := a.Text(); t != "" {
		return t
	}
	return "No text extracted yet."
}

// HTML returns the HTML slot.
func (a *Adapter) HTML() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.html
}

// HTMLDocument returns the HTML slot inside its display container. With
// nothing extracted the container is empty.
func (a *Adapter) HTMLDocument() string {
	return `<div class="` + HTMLContainerClass + `">` + a.HTML() + `</div>`
}

// Images returns a copy of the image slot.
func (a *Adapter) Images() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.images))
	copy(out, a.images)
	return out
}

// Notifications returns the notifications raised so far, oldest first.
func (a *Adapter) Notifications() []domain.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Notification, len(a.toasts))
	copy(out, a.toasts)
	return out
}

// Notify implements domain.Notifier.
func (a *Adapter) Notify(title, message string, severity domain.Severity) {
	a.mu.Lock()
	a.toasts = append(a.toasts, domain.Notification{
		Title:    title,
		Message:  message,
		Severity: severity,
		Time:     time.Now(),
	})
	a.mu.Unlock()

	if a.deps.Notifier != nil {
		a.deps.Notifier.Notify(title, message, severity)
	}
}

// Close tears the instance down, dropping the file and every slot.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = nil
	a.mode = domain.ModeNone
	a.canvases = nil
	a.text = ""
	a.html = ""
	a.images = nil
}

func (a *Adapter) beginLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loading {
		return false
	}
	a.loading = true
	return true
}

func (a *Adapter) endLoading() {
	a.mu.Lock()
	a.loading = false
	a.mu.Unlock()
}

func (a *Adapter) apply(result *domain.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch result.Mode {
	case domain.ModeText:
		a.text = result.Text
	case domain.ModeHTML:
		a.html = result.HTML
	case domain.ModeImage:
		a.images = result.Images
	case domain.ModeCanvas:
		// Slots were filled through Prepare and Draw.
	}
}

// rejectFile logs a validation failure and tells the user.
func (a *Adapter) rejectFile(err error) {
	a.logger.Error().Err(err).Msg("file rejected")

	message := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	a.Notify("Error", message, domain.SeverityError)
}

// failRun logs a load or extraction failure. Canvas and image runs also
// raise a generic notification; text and HTML runs only log.
func (a *Adapter) failRun(mode domain.Mode, err error) {
	a.logger.Error().Err(err).Str("mode", mode.String()).Msg("extraction failed")

	if mode == domain.ModeCanvas || mode == domain.ModeImage {
		a.Notify("Error", "Error loading PDF", domain.SeverityError)
	}
}
