package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/common"
)

// PDFText converts a PDF bill to text lines with poppler's pdftotext.
type PDFText struct {
	bin    string
	runner Runner
	logger *zap.Logger
}

// NewPDFText wires pdftotext. bin may be a bare name resolved via PATH or an
// absolute path.
func NewPDFText(bin string, runner Runner, logger *zap.Logger) *PDFText {
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = NewRunner(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFText{bin: bin, runner: runner, logger: logger}
}

// ExtractLines runs pdftotext in layout mode and returns the text split into
// lines, plus the page count.
func (p *PDFText) ExtractLines(ctx context.Context, path string) ([]string, int, error) {
	out, err := p.runner.Run(ctx, p.bin,
		"-layout",
		"-enc", "UTF-8",
		"-eol", "unix",
		path,
		"-", // write to stdout
	)
	if err != nil {
		return nil, 0, common.NewAppError("PDF_EXTRACT_FAILED", "pdftotext failed", err)
	}
	text := string(out)
	// pdftotext separates pages with form feeds
	pages := strings.Count(text, "\f")
	if len(text) > 0 {
		pages++
	}
	lines := strings.Split(strings.ReplaceAll(text, "\f", "\n"), "\n")
	p.logger.Info("extract.pdf.ok",
		zap.String("path", path),
		zap.Int("pages", pages),
		zap.Int("lines", len(lines)))
	return lines, pages, nil
}
