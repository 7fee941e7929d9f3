package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"canvas", ModeCanvas, false},
		{"TEXT", ModeText, false},
		{" html ", ModeHTML, false},
		{"image", ModeImage, false},
		{"images", ModeImage, false},
		{"pdf", ModeNone, true},
		{"", ModeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_TextRoundTrip(t *testing.T) {
	for _, m := range append([]Mode{ModeNone}, Modes...) {
		b, err := m.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", m, err)
		}
		var back Mode
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", b, err)
		}
		if back != m {
			t.Errorf("round trip of %v gave %v", m, back)
		}
	}
}

func TestMode_JSONNone(t *testing.T) {
	type snapshot struct {
		Mode Mode `json:"mode"`
	}
	b, err := json.Marshal(snapshot{Mode: ModeNone})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"mode":"none"}` {
		t.Errorf("Marshal = %s", b)
	}
	back := snapshot{Mode: ModeText}
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal(%s): %v", b, err)
	}
	if back.Mode != ModeNone {
		t.Errorf("Unmarshal gave %v, want none", back.Mode)
	}
	if _, err := ParseMode("none"); err == nil {
		t.Error(`ParseMode("none") should fail; "none" is not a runnable mode`)
	}
}

func TestSourceFile_SizeMiB(t *testing.T) {
	f := &SourceFile{Size: 2 * 1024 * 1024}
	if got := f.SizeMiB(); got != 2 {
		t.Errorf("SizeMiB() = %v, want 2", got)
	}
}

func TestTextFragment_Placement(t *testing.T) {
	f := TextFragment{Text: "x", Transform: [6]float64{12, 0, 0, 12, 72, 700.5}}
	if f.FontSize() != 12 || f.Left() != 72 || f.Top() != 700.5 {
		t.Errorf("unexpected placement: size=%v left=%v top=%v", f.FontSize(), f.Left(), f.Top())
	}
}

func TestDomainError_Wrapping(t *testing.T) {
	err := ValidationError("file is 2.00 MiB", ErrTooLarge)

	if !errors.Is(err, ErrTooLarge) {
		t.Error("expected errors.Is to find ErrTooLarge")
	}
	if !IsType(err, ErrorTypeValidation) {
		t.Error("expected validation type")
	}

	wrapped := fmt.Errorf("upload: %w", LoadError("open document", err))
	if !IsType(wrapped, ErrorTypeLoad) {
		t.Error("expected load type through fmt wrapping")
	}
	if !IsType(wrapped, ErrorTypeValidation) {
		t.Error("expected nested validation type")
	}
	if IsType(wrapped, ErrorTypeExtraction) {
		t.Error("did not expect extraction type")
	}
	if want := "[validation] file is 2.00 MiB: file too large"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
