// billparse extracts bill fields from a single document and prints the
// resulting record as JSON. Useful for tuning rule tables against new bill
// layouts without running the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/constants"
	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/extract"
)

func main() {
	var (
		file      = flag.String("file", "", "bill document to parse (.pdf or .json)")
		rulesPath = flag.String("rules", "", "optional JSON rule table (default: built-in)")
		pdftotext = flag.String("pdftotext", "pdftotext", "pdftotext binary")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: billparse -file bill.pdf [-rules rules.json]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fatal(err)
		}
		logger = l
	}

	rec, err := parse(*file, *rulesPath, *pdftotext, logger)
	if err != nil {
		fatal(err)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func parse(file, rulesPath, pdftotext string, logger *zap.Logger) (entity.BillRecord, error) {
	switch constants.NormalizeExt(filepath.Ext(file)) {
	case "pdf":
		var rules []extract.Rule
		if rulesPath != "" {
			var err error
			rules, err = extract.LoadRules(rulesPath)
			if err != nil {
				return entity.BillRecord{}, err
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pdf := extract.NewPDFText(pdftotext, extract.NewRunner(logger), logger)
		lines, _, err := pdf.ExtractLines(ctx, file)
		if err != nil {
			return entity.BillRecord{}, err
		}
		return extract.NewExtractor(rules, logger).ParseLines(lines), nil
	case "json":
		data, err := os.ReadFile(file)
		if err != nil {
			return entity.BillRecord{}, err
		}
		return extract.DecodeInvoice(data)
	default:
		return entity.BillRecord{}, fmt.Errorf("unsupported file type: %s", file)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "billparse:", err)
	os.Exit(1)
}
