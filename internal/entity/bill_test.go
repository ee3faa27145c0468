package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillRecordMarshalIsFlat(t *testing.T) {
	rec := BillRecord{
		BillNo:    "INV-1",
		BillDate:  "2024-03-15",
		AmountDue: 82.23,
		Labels:    map[string]any{"Rate terminal": 20.0},
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "INV-1", m["billNo"])
	assert.Equal(t, "2024-03-15", m["billDate"])
	assert.Equal(t, 82.23, m["amountDue"])
	assert.Equal(t, 20.0, m["Rate terminal"])
	assert.NotContains(t, m, "Labels")
}

func TestBillRecordUnmarshalSplitsNamedFields(t *testing.T) {
	body := `{"billNo": "INV-1", "billDate": "2024-03-15", "amountDue": 82.23, "TVA": 13.13}`
	var rec BillRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	assert.Equal(t, "INV-1", rec.BillNo)
	assert.Equal(t, 82.23, rec.AmountDue)
	assert.Equal(t, 13.13, rec.Labels["TVA"])
	assert.NotContains(t, rec.Labels, "billNo")
}

func TestBillRecordKeys(t *testing.T) {
	rec := BillRecord{
		BillNo:   "INV-1",
		BillDate: "2024-03-15",
		Labels:   map[string]any{"TVA": 13.13},
	}
	assert.Equal(t, []string{"TVA", "billDate", "billNo"}, rec.Keys())
}

func TestSameBill(t *testing.T) {
	a := BillRecord{BillNo: "INV-1", BillDate: "2024-03-15"}
	assert.True(t, a.SameBill(BillRecord{BillNo: "INV-1", BillDate: "2024-03-15"}))
	assert.False(t, a.SameBill(BillRecord{BillNo: "INV-1", BillDate: "2024-04-15"}))
	assert.False(t, a.SameBill(BillRecord{BillNo: "INV-2", BillDate: "2024-03-15"}))
}

func TestUserAccountAllKeys(t *testing.T) {
	acct := UserAccount{Bills: []BillRecord{
		{BillNo: "A", BillDate: "2024-01-01", Labels: map[string]any{"TVA": 1.0}},
		{BillNo: "B", BillDate: "2024-02-01", Labels: map[string]any{"Rate terminal": 2.0}},
	}}
	assert.Equal(t, []string{"Rate terminal", "TVA", "billDate", "billNo"}, acct.AllKeys())
}

func TestNormalizeUserID(t *testing.T) {
	assert.Equal(t, "712345678", NormalizeUserID("0712345678"))
	assert.Equal(t, "712345678", NormalizeUserID(" 712345678 "))
	// at most one zero is stripped
	assert.Equal(t, "0712345678", NormalizeUserID("00712345678"))
	// a bare zero stays
	assert.Equal(t, "0", NormalizeUserID("0"))
}
