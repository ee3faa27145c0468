package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sampleBill = []string{
	"Factura fiscala seria VDF nr. 123456789",
	"Data facturii                                   15.03.2024",
	"Sold precedent                                     0,00 lei",
	"Total platit din sold precedent                   55,30 lei",
	"Abonamente si extraoptiuni                        45,90 lei",
	"Servicii utilizate                                 3,20 lei",
	"Rate terminal                                     20,00 lei",
	"Total factura curenta fara TVA                    69,10 lei",
	"TVA 19,00%                                        13,13 lei",
	"Total factura curenta                             82,23 lei",
}

func TestParseLinesMatchesLabels(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	rec := e.ParseLines(sampleBill)

	assert.Equal(t, "15.03.2024", rec.Labels["Data factura"])
	assert.Equal(t, 0.00, rec.Labels["Sold precedent"])
	assert.Equal(t, 55.30, rec.Labels["Total platit din sold precedent"])
	assert.Equal(t, 45.90, rec.Labels["Abonamente si extraoptiuni"])
	assert.Equal(t, 69.10, rec.Labels["Total factura curenta fara TVA"])
	assert.Equal(t, 13.13, rec.Labels["TVA"])
	assert.Equal(t, 82.23, rec.Labels["Total factura curenta"])
}

func TestParseLinesVATPercentWinsOverGenericVAT(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	rec := e.ParseLines([]string{"TVA 19,00%    13,13 lei"})

	assert.Equal(t, 13.13, rec.Labels["TVA"])
	assert.NotContains(t, rec.Labels, "Total factura curenta fara TVA")
}

func TestParseLinesSpecificLabelBeforeGeneric(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	rec := e.ParseLines([]string{
		"Total factura curenta fara TVA   69,10 lei",
		"Total factura curenta            82,23 lei",
	})

	assert.Equal(t, 69.10, rec.Labels["Total factura curenta fara TVA"])
	assert.Equal(t, 82.23, rec.Labels["Total factura curenta"])
}

func TestParseLinesSkipsMalformedValues(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	rec := e.ParseLines([]string{
		"Sold precedent abc lei",
		"Rate terminal",
		"Servicii utilizate 3,20 lei",
	})

	assert.NotContains(t, rec.Labels, "Sold precedent")
	assert.NotContains(t, rec.Labels, "Rate terminal")
	assert.Equal(t, 3.20, rec.Labels["Servicii utilizate"])
}

func TestParseLinesUnknownLayoutYieldsEmptyRecord(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop())
	rec := e.ParseLines([]string{"Invoice total: $42.00", "Due date: 2024-01-01"})

	assert.Empty(t, rec.Labels)
	assert.Empty(t, rec.BillNo)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	body := `[
		{"contains": "Valoare totala", "canonical": "Valoare totala", "kind": "amount"},
		{"contains": "Data scadenta", "canonical": "Data scadenta", "kind": "date"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, KindAmount, rules[0].Kind)

	rec := NewExtractor(rules, zap.NewNop()).ParseLines([]string{
		"Valoare totala 12,50 lei",
		"Data scadenta 01.04.2024",
	})
	assert.Equal(t, 12.50, rec.Labels["Valoare totala"])
	assert.Equal(t, "01.04.2024", rec.Labels["Data scadenta"])
}

func TestLoadRulesRejectsBadKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	body := `[{"contains": "X", "canonical": "X", "kind": "bogus"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadRules(path)
	assert.Error(t, err)
}

type fakeRunner struct {
	out  []byte
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.out, f.err
}

func TestPDFTextExtractLines(t *testing.T) {
	runner := &fakeRunner{out: []byte("Data facturii 15.03.2024\nTotal factura curenta 82,23 lei\n\fpage two\n")}
	p := NewPDFText("pdftotext", runner, zap.NewNop())

	lines, pages, err := p.ExtractLines(context.Background(), "/tmp/bill.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Contains(t, runner.args, "-layout")
	assert.Contains(t, runner.args, "/tmp/bill.pdf")
	assert.Equal(t, 2, pages)
	assert.Contains(t, lines, "Data facturii 15.03.2024")
}

func TestDecodeInvoice(t *testing.T) {
	body := `{
		"billNo": "INV-001",
		"billDate": "2024-03-15",
		"amountDue": 82.23,
		"extraCharge": 1.5,
		"taxItem": [{"cat": "19.00", "amt": 13.13}],
		"subscribers": [
			{
				"logicalResource": "0712345678",
				"billSummaryItem": [
					{"cat": "subscription", "amt": 45.9, "name": "Abonament Red"},
					{"cat": "usage", "amt": 3.2}
				]
			}
		]
	}`
	rec, err := DecodeInvoice([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "INV-001", rec.BillNo)
	assert.Equal(t, "2024-03-15", rec.BillDate)
	assert.Equal(t, 82.23, rec.AmountDue)
	assert.Equal(t, 13.13, rec.Labels["TVA 19.00"])
	// single subscriber, no resource prefix
	assert.Equal(t, 45.9, rec.Labels["Abonament Red"])
	assert.Equal(t, 3.2, rec.Labels["usage"])
}

func TestDecodeInvoicePrefixesMultipleSubscribers(t *testing.T) {
	body := `{
		"billNo": "INV-002",
		"billDate": "2024-03-15",
		"subscribers": [
			{"logicalResource": "0712345678", "billSummaryItem": [{"cat": "subscription", "amt": 10}]},
			{"logicalResource": "0798765432", "billSummaryItem": [{"cat": "subscription", "amt": 12}]}
		]
	}`
	rec, err := DecodeInvoice([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 10.0, rec.Labels["0712345678 subscription"])
	assert.Equal(t, 12.0, rec.Labels["0798765432 subscription"])
}

func TestDecodeInvoiceRejectsMissingBillNo(t *testing.T) {
	_, err := DecodeInvoice([]byte(`{"billDate": "2024-03-15"}`))
	assert.Error(t, err)
}
