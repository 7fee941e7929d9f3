package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/spherical/pdf-reader/internal/domain"
)

// Spinner wraps a spinner for indeterminate progress on stderr.
type Spinner struct {
	spinner *spinner.Spinner
}

// NewSpinner creates a stopped spinner with the given message.
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return &Spinner{spinner: s}
}

// Start starts the animation.
func (s *Spinner) Start() { s.spinner.Start() }

// Stop stops the animation and clears the line.
func (s *Spinner) Stop() { s.spinner.Stop() }

// UpdateMessage replaces the spinner's message.
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}

// NewProgressBar creates a page counter bar on stderr.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// ConsoleNotifier prints user-facing notifications to a terminal.
type ConsoleNotifier struct {
	out     io.Writer
	noColor bool
}

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer, noColor bool) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, noColor: noColor}
}

// Notify implements domain.Notifier.
func (n *ConsoleNotifier) Notify(title, message string, severity domain.Severity) {
	symbol, attr := "ℹ", color.FgCyan
	switch severity {
	case domain.SeveritySuccess:
		symbol, attr = "✓", color.FgGreen
	case domain.SeverityWarning:
		symbol, attr = "⚠", color.FgYellow
	case domain.SeverityError:
		symbol, attr = "✗", color.FgRed
	}

	line := fmt.Sprintf("%s %s: %s\n", symbol, title, message)
	if n.noColor {
		fmt.Fprint(n.out, line)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	c.Fprint(n.out, line)
}
