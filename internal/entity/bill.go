package entity

import (
	"encoding/json"
	"sort"
	"strings"
)

// Named BillRecord fields that are stored at the top level of the JSON
// document, next to the extracted labels.
const (
	FieldBillNo      = "billNo"
	FieldBillDate    = "billDate"
	FieldAmountDue   = "amountDue"
	FieldExtraCharge = "extraCharge"
)

// BillRecord is one parsed bill. Labels holds whatever label/value pairs the
// extraction matched (float64 amounts or date strings); BillNo, BillDate,
// AmountDue and ExtraCharge are only set by the structured-invoice upload
// path. A record is immutable once stored; changes append or replace whole
// records in the user's collection.
type BillRecord struct {
	BillNo      string
	BillDate    string
	AmountDue   float64
	ExtraCharge float64
	Labels      map[string]any
}

// Keys returns every top-level key of the record as persisted: the named
// fields that are set plus all label keys, sorted.
func (b BillRecord) Keys() []string {
	keys := make([]string, 0, len(b.Labels)+4)
	if b.BillNo != "" {
		keys = append(keys, FieldBillNo)
	}
	if b.BillDate != "" {
		keys = append(keys, FieldBillDate)
	}
	if b.AmountDue != 0 {
		keys = append(keys, FieldAmountDue)
	}
	if b.ExtraCharge != 0 {
		keys = append(keys, FieldExtraCharge)
	}
	for k := range b.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SameBill reports whether two records describe the same document, i.e. share
// billNo and billDate.
func (b BillRecord) SameBill(other BillRecord) bool {
	return b.BillNo == other.BillNo && b.BillDate == other.BillDate
}

// MarshalJSON flattens Labels into the top-level object so the persisted
// shape matches the upload variants: named fields and matched labels side by
// side in one flat mapping.
func (b BillRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Labels)+4)
	for k, v := range b.Labels {
		m[k] = v
	}
	if b.BillNo != "" {
		m[FieldBillNo] = b.BillNo
	}
	if b.BillDate != "" {
		m[FieldBillDate] = b.BillDate
	}
	if b.AmountDue != 0 {
		m[FieldAmountDue] = b.AmountDue
	}
	if b.ExtraCharge != 0 {
		m[FieldExtraCharge] = b.ExtraCharge
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON: named keys are pulled out of
// the flat object, everything else lands in Labels.
func (b *BillRecord) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*b = BillRecord{}
	for k, v := range m {
		switch k {
		case FieldBillNo:
			if s, ok := v.(string); ok {
				b.BillNo = s
				continue
			}
		case FieldBillDate:
			if s, ok := v.(string); ok {
				b.BillDate = s
				continue
			}
		case FieldAmountDue:
			if f, ok := v.(float64); ok {
				b.AmountDue = f
				continue
			}
		case FieldExtraCharge:
			if f, ok := v.(float64); ok {
				b.ExtraCharge = f
				continue
			}
		}
		if b.Labels == nil {
			b.Labels = make(map[string]any)
		}
		b.Labels[k] = v
	}
	return nil
}

// UserAccount is a user's full bill collection, persisted as one JSON
// document. Bills keep upload order.
type UserAccount struct {
	UserID string       `json:"-"`
	Bills  []BillRecord `json:"bills"`
}

// AllKeys collects the distinct top-level keys across every stored bill.
func (u *UserAccount) AllKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, b := range u.Bills {
		for _, k := range b.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// NormalizeUserID trims whitespace and strips at most one leading zero, the
// form under which accounts are stored and matched.
func NormalizeUserID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 1 && id[0] == '0' {
		return id[1:]
	}
	return id
}
