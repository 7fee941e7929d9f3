package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/extract"
	"github.com/spherical/pdf-reader/internal/pdf"
)

func newExtractCmd() *cobra.Command {
	var (
		mode   string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Extract one PDF in the given mode",
		Long: `Extract loads a single PDF and writes the output of one mode.

Text and HTML go to stdout, or to DIR/<name>.txt and DIR/<name>.html with --out.
Image and canvas modes write DIR/page-NNN.png (DIR defaults to the current directory).`,
		Example: `  pdf-reader extract brochure.pdf --mode text
  pdf-reader extract brochure.pdf --mode html --out ./out
  pdf-reader extract brochure.pdf --mode image --out ./pages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runExtract(ctx, cmd.OutOrStdout(), args[0], m, outDir)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "text", "output mode: canvas, text, html or image")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory")

	return cmd
}

func runExtract(ctx context.Context, stdout io.Writer, path string, mode domain.Mode, outDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.IOError("read input", err)
	}
	file := &domain.SourceFile{
		Name:        filepath.Base(path),
		ContentType: pdf.DetectContentType(data),
		Size:        int64(len(data)),
		Data:        data,
	}

	log := logger.WithComponent("cli")
	adapter := newAdapter(pdf.NewFitzEngine(), NewConsoleNotifier(os.Stderr, noColor), log)
	defer adapter.Close()

	spin := NewSpinner("Loading PDF engine...")
	spin.Start()
	if err := adapter.Bootstrap(ctx); err != nil {
		spin.Stop()
		return err
	}

	if err := adapter.SetFile(file); err != nil {
		spin.Stop()
		return err
	}

	spin.UpdateMessage(extractingMessage(file.Name, mode))
	_, err = adapter.Run(ctx, mode)
	spin.Stop()
	if err != nil {
		return err
	}

	switch mode {
	case domain.ModeText:
		return writeDocument(stdout, outDir, file.Name, ".txt", adapter.Text())
	case domain.ModeHTML:
		return writeDocument(stdout, outDir, file.Name, ".html", adapter.HTMLDocument())
	case domain.ModeImage:
		images := adapter.Images()
		return writePages(outDir, len(images), func(i int) ([]byte, error) {
			return extract.DecodeDataURL(images[i])
		})
	case domain.ModeCanvas:
		canvases := adapter.Canvases()
		return writePages(outDir, len(canvases), func(i int) ([]byte, error) {
			return encodeCanvas(canvases[i].Surface)
		})
	}
	return nil
}

// writeDocument writes a single-body output to stdout or DIR/<name><ext>.
func writeDocument(stdout io.Writer, outDir, name, ext, body string) error {
	if outDir == "" {
		_, err := io.WriteString(stdout, body)
		if err == nil && !strings.HasSuffix(body, "\n") {
			_, err = io.WriteString(stdout, "\n")
		}
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.IOError("create output directory", err)
	}
	target := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+ext)
	if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
		return domain.IOError("write output", err)
	}
	logger.Info().Str("path", target).Msg("output written")
	return nil
}

// writePages writes page-NNN.png for each of n pages. A page whose payload
// is nil is skipped.
func writePages(outDir string, n int, payload func(i int) ([]byte, error)) error {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return domain.IOError("create output directory", err)
	}

	bar := NewProgressBar(n, "Writing pages")
	defer bar.Finish()

	for i := 0; i < n; i++ {
		data, err := payload(i)
		if err != nil {
			return domain.IOError(fmt.Sprintf("encode page %d", i+1), err)
		}
		if data != nil {
			target := filepath.Join(outDir, pageFileName(i+1))
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return domain.IOError("write page", err)
			}
		}
		_ = bar.Add(1)
	}
	return nil
}

func extractingMessage(name string, mode domain.Mode) string {
	return fmt.Sprintf("Extracting %s (%s)...", name, mode)
}

func pageFileName(page int) string {
	return fmt.Sprintf("page-%03d.png", page)
}

// encodeCanvas encodes a rendered canvas. Canvases whose page failed to
// render have no surface and produce no file.
func encodeCanvas(surface image.Image) ([]byte, error) {
	if surface == nil {
		return nil, nil
	}
	return extract.EncodePNG(surface)
}
