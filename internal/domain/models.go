package domain

import (
	"fmt"
	"strings"
	"time"
)

// AcceptedContentType is the only MIME type the reader takes.
const AcceptedContentType = "application/pdf"

// RenderScale is the zoom factor used for canvas and image rendering.
const RenderScale = 1.5

// Mode is the selected output target of an extraction run.
type Mode int

const (
	ModeNone Mode = iota
	ModeCanvas
	ModeText
	ModeHTML
	ModeImage
)

// Modes lists the selectable modes in display order.
var Modes = []Mode{ModeCanvas, ModeText, ModeHTML, ModeImage}

func (m Mode) String() string {
	switch m {
	case ModeCanvas:
		return "canvas"
	case ModeText:
		return "text"
	case ModeHTML:
		return "html"
	case ModeImage:
		return "image"
	default:
		return "none"
	}
}

// ParseMode maps a mode name (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "canvas":
		return ModeCanvas, nil
	case "text":
		return ModeText, nil
	case "html":
		return ModeHTML, nil
	case "image", "images":
		return ModeImage, nil
	}
	return ModeNone, fmt.Errorf("unknown mode %q (want canvas, text, html or image)", s)
}

// MarshalText lets modes travel as names in JSON and YAML.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name. Unlike ParseMode it accepts "none",
// so a snapshot taken before any mode is selected decodes back.
func (m *Mode) UnmarshalText(b []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(b)), ModeNone.String()) {
		*m = ModeNone
		return nil
	}
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SourceFile is the raw upload as selected by the user.
type SourceFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// SizeMiB returns the declared size in mebibytes.
func (f *SourceFile) SizeMiB() float64 {
	return float64(f.Size) / (1024 * 1024)
}

// TextFragment is one positioned run of text reported by the engine.
// Transform is the affine matrix [a b c d e f]: a is the horizontal scale
// (used as font size), e and f are the translation.
type TextFragment struct {
	Text      string
	Transform [6]float64
}

// FontSize returns the horizontal scale component.
func (f TextFragment) FontSize() float64 { return f.Transform[0] }

// Left returns the horizontal translation.
func (f TextFragment) Left() float64 { return f.Transform[4] }

// Top returns the vertical translation.
func (f TextFragment) Top() float64 { return f.Transform[5] }

// Viewport is the scaled frame a page is rasterized into.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// PagePlaceholder reserves a presentation slot for one page in canvas mode.
type PagePlaceholder struct {
	ID int `json:"id"`
}

// Result is the mode-tagged output of one pipeline run. Only the field
// matching Mode is populated.
type Result struct {
	Mode     Mode              `json:"mode"`
	Canvases []PagePlaceholder `json:"canvases,omitempty"`
	Text     string            `json:"text,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Images   []string          `json:"images,omitempty"`
}

// Severity of a user notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one toast shown to the user.
type Notification struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
}
