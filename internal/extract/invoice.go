package extract

import (
	"encoding/json"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
)

// invoiceSchema guards the structured JSON upload before decoding. billNo
// and billDate identify the document and are mandatory; everything else is
// optional detail.
var invoiceSchema = map[string]any{
	"type":     "object",
	"required": []string{"billNo", "billDate"},
	"properties": map[string]any{
		"billNo":      map[string]any{"type": "string", "minLength": 1},
		"billDate":    map[string]any{"type": "string", "minLength": 1},
		"amountDue":   map[string]any{"type": "number"},
		"extraCharge": map[string]any{"type": "number"},
		"taxItem": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"cat", "amt"},
				"properties": map[string]any{
					"cat": map[string]any{"type": "string"},
					"amt": map[string]any{"type": "number"},
				},
			},
		},
		"subscribers": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"logicalResource": map[string]any{"type": "string"},
					"billSummaryItem": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":     "object",
							"required": []string{"cat", "amt"},
							"properties": map[string]any{
								"cat":  map[string]any{"type": "string"},
								"amt":  map[string]any{"type": "number"},
								"name": map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
}

// DecodeInvoice validates and flattens a structured invoice upload into a
// BillRecord. Tax lines become "TVA <cat>" labels; subscriber charge lines
// keep their display name (category as fallback), prefixed with the logical
// resource when the invoice covers more than one line.
func DecodeInvoice(data []byte) (entity.BillRecord, error) {
	if err := ValidateJSONAgainstSchema(invoiceSchema, data); err != nil {
		return entity.BillRecord{}, common.NewAppError("INVOICE_INVALID", "invoice does not match schema", common.ErrValidation)
	}
	var inv entity.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return entity.BillRecord{}, common.NewAppError("INVOICE_INVALID", "invoice decode failed", err)
	}

	rec := entity.BillRecord{
		BillNo:      inv.BillNo,
		BillDate:    inv.BillDate,
		AmountDue:   inv.AmountDue,
		ExtraCharge: inv.ExtraCharge,
		Labels:      make(map[string]any),
	}
	for _, t := range inv.TaxItems {
		rec.Labels["TVA "+t.Cat] = t.Amt
	}
	for _, sub := range inv.Subscribers {
		for _, item := range sub.BillSummaryItems {
			key := item.Name
			if key == "" {
				key = item.Cat
			}
			if len(inv.Subscribers) > 1 && sub.LogicalResource != "" {
				key = sub.LogicalResource + " " + key
			}
			rec.Labels[key] = item.Amt
		}
	}
	return rec, nil
}
