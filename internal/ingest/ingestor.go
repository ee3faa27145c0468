package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/constants"
	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/extract"
	"github.com/vchirila/billchat/internal/store"
)

// Ingestor processes documents dropped under <root>/<userID>/: PDFs go
// through text extraction, JSON files through the structured invoice
// decoder, and the resulting record is appended to the user's collection.
type Ingestor struct {
	root      string
	pdf       *extract.PDFText
	extractor *extract.Extractor
	store     *store.Store
	logger    *zap.Logger
}

// NewIngestor wires the pipeline behind the watcher.
func NewIngestor(root string, pdf *extract.PDFText, extractor *extract.Extractor, st *store.Store, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{root: root, pdf: pdf, extractor: extractor, store: st, logger: logger}
}

// Run consumes watcher events until the channel closes.
func (i *Ingestor) Run(ctx context.Context, events <-chan string) {
	for path := range events {
		if err := i.Process(ctx, path); err != nil {
			i.logger.Error("ingest.process.fail", zap.String("path", path), zap.Error(err))
		}
	}
}

// Process ingests one dropped file.
func (i *Ingestor) Process(ctx context.Context, path string) error {
	userID, err := i.userFor(path)
	if err != nil {
		return err
	}

	var rec entity.BillRecord
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "pdf":
		lines, _, err := i.pdf.ExtractLines(ctx, path)
		if err != nil {
			return err
		}
		rec = i.extractor.ParseLines(lines)
	case "json":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read invoice: %w", err)
		}
		rec, err = extract.DecodeInvoice(data)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported extension: %s", path)
	}

	// unattended path: a dropped duplicate replaces the stored record
	_, replaced, err := i.store.Add(userID, rec, true)
	if err != nil {
		return err
	}
	i.logger.Info("ingest.process.ok",
		zap.String("path", path),
		zap.String("user_id", userID),
		zap.Bool("replaced", replaced),
		zap.Int("labels", len(rec.Labels)))
	return nil
}

// userFor derives the account ID from the first path element under the
// watch root: <root>/<userID>/bill.pdf.
func (i *Ingestor) userFor(path string) (string, error) {
	rel, err := filepath.Rel(i.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path outside watch root: %s", path)
	}
	dir := filepath.Dir(rel)
	if dir == "." || dir == string(filepath.Separator) {
		return "", fmt.Errorf("file not under a user directory: %s", path)
	}
	// only the first element names the user; deeper nesting is allowed
	for {
		parent := filepath.Dir(dir)
		if parent == "." {
			break
		}
		dir = parent
	}
	return entity.NormalizeUserID(dir), nil
}
