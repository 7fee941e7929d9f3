package pdf

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spherical/pdf-reader/internal/domain"
)

// Validator checks uploads against the accepted type and size ceiling.
type Validator struct {
	acceptedType string
	maxSizeMB    float64
}

// NewValidator creates a validator. Zero values fall back to application/pdf and 1 MiB.
func NewValidator(acceptedType string, maxSizeMB float64) *Validator {
	if acceptedType == "" {
		acceptedType = domain.AcceptedContentType
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 1
	}
	return &Validator{acceptedType: acceptedType, maxSizeMB: maxSizeMB}
}

// MaxSizeMB returns the configured ceiling.
func (v *Validator) MaxSizeMB() float64 {
	return v.maxSizeMB
}

// Validate returns file unchanged when it may be handed to the engine.
// It has no side effects; notifying the user is the caller's job.
func (v *Validator) Validate(file *domain.SourceFile) (*domain.SourceFile, error) {
	if file == nil {
		return nil, domain.ValidationError("No file selected.", domain.ErrNoFileSelected)
	}

	if file.ContentType != v.acceptedType {
		return nil, domain.ValidationError(
			"Invalid file type. Please upload a PDF file.",
			fmt.Errorf("%w: %q", domain.ErrUnsupportedType, file.ContentType),
		)
	}

	if file.SizeMiB() > v.maxSizeMB {
		return nil, domain.ValidationError(
			fmt.Sprintf("File size exceeds %s MB. Please select a smaller file.", formatMB(v.maxSizeMB)),
			fmt.Errorf("%w: %.2f MiB", domain.ErrTooLarge, file.SizeMiB()),
		)
	}

	return file, nil
}

// DetectContentType sniffs the MIME type of data. A %PDF- header maps to application/pdf.
func DetectContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

func formatMB(mb float64) string {
	s := fmt.Sprintf("%.2f", mb)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
