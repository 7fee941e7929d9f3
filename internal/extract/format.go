package extract

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/spherical/pdf-reader/internal/domain"
)

// PageContainerClass is the class of the per-page wrapper in HTML output.
const PageContainerClass = "pdf-page"

const pngDataURLPrefix = "data:image/png;base64,"

// PageText joins the fragment strings of one page with single spaces.
func PageText(frags []domain.TextFragment) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, fragmentSeparator)
}

// PageHTML renders one page as a container with one positioned span per
// fragment. Placement comes straight from the fragment transform.
func PageHTML(frags []domain.TextFragment) string {
	var sb strings.Builder
	sb.WriteString(`<div class="` + PageContainerClass + `">`)
	for _, f := range frags {
		fmt.Fprintf(&sb, `<span style="font-size:%spx; left:%spx; top:%spx;">%s</span>`,
			formatNumber(f.FontSize()), formatNumber(f.Left()), formatNumber(f.Top()),
			html.EscapeString(f.Text))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

// EncodeDataURL encodes a rendered surface as a PNG data URL.
func EncodeDataURL(surface image.Image) (string, error) {
	data, err := EncodePNG(surface)
	if err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// EncodePNG encodes a rendered surface as PNG bytes.
func EncodePNG(surface image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, surface); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDataURL returns the PNG bytes carried by a data URL produced by EncodeDataURL.
func DecodeDataURL(url string) ([]byte, error) {
	payload, ok := strings.CutPrefix(url, pngDataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}

// formatNumber prints the shortest decimal form: 12 not 12.000000.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
