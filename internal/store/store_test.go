package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestLoadMissingUserIsEmptyAccount(t *testing.T) {
	s := newTestStore(t)

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	assert.Empty(t, acct.Bills)
}

func TestAppendAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	rec := entity.BillRecord{
		BillNo:    "INV-001",
		BillDate:  "2024-03-15",
		AmountDue: 82.23,
		Labels:    map[string]any{"Servicii utilizate": 3.2},
	}
	require.NoError(t, s.Append("712345678", rec))

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	require.Len(t, acct.Bills, 1)
	assert.Equal(t, "INV-001", acct.Bills[0].BillNo)
	assert.Equal(t, 3.2, acct.Bills[0].Labels["Servicii utilizate"])
}

func TestLeadingZeroAddressesSameAccount(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append("0712345678", entity.BillRecord{BillNo: "A", BillDate: "2024-01-01"}))

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	assert.Len(t, acct.Bills, 1)
	assert.Equal(t, filepath.Base(s.Path("0712345678")), filepath.Base(s.Path("712345678")))
}

func TestDocumentIsFlatJSON(t *testing.T) {
	s := newTestStore(t)
	rec := entity.BillRecord{
		BillNo:   "INV-001",
		BillDate: "2024-03-15",
		Labels:   map[string]any{"Total factura curenta": 82.23},
	}
	require.NoError(t, s.Append("712345678", rec))

	data, err := os.ReadFile(s.Path("712345678"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bills"`)
	assert.Contains(t, string(data), `"billNo": "INV-001"`)
	assert.Contains(t, string(data), `"Total factura curenta": 82.23`)
}

func TestReplaceRemovesMatchAndAppends(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}))
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "INV-002", BillDate: "2024-04-15", AmountDue: 20}))

	err := s.Replace("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 99})
	require.NoError(t, err)

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	require.Len(t, acct.Bills, 2)
	// the replacement lands at the end, survivors keep their order
	assert.Equal(t, "INV-002", acct.Bills[0].BillNo)
	assert.Equal(t, "INV-001", acct.Bills[1].BillNo)
	assert.Equal(t, 99.0, acct.Bills[1].AmountDue)
}

func TestReplaceRemovesEveryMatchingRecord(t *testing.T) {
	s := newTestStore(t)
	// duplicates can slip in through direct appends
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}))
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}))
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "INV-002", BillDate: "2024-04-15", AmountDue: 20}))

	err := s.Replace("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 99})
	require.NoError(t, err)

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	require.Len(t, acct.Bills, 2)
	matches := 0
	for _, b := range acct.Bills {
		if b.BillNo == "INV-001" {
			matches++
			assert.Equal(t, 99.0, b.AmountDue)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestAddRejectsDuplicateAndReturnsExisting(t *testing.T) {
	s := newTestStore(t)
	first := entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}
	_, replaced, err := s.Add("712345678", first, false)
	require.NoError(t, err)
	assert.False(t, replaced)

	existing, _, err := s.Add("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 99}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicate))
	assert.Equal(t, 10.0, existing.AmountDue)

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	assert.Len(t, acct.Bills, 1)
}

func TestAddWithReplaceOverwrites(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Add("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}, false)
	require.NoError(t, err)

	_, replaced, err := s.Add("712345678", entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 99}, true)
	require.NoError(t, err)
	assert.True(t, replaced)

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	require.Len(t, acct.Bills, 1)
	assert.Equal(t, 99.0, acct.Bills[0].AmountDue)
}

func TestConcurrentAddsOfSameBillAppendOnce(t *testing.T) {
	s := newTestStore(t)
	rec := entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15", AmountDue: 10}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = s.Add("712345678", rec, false)
		}()
	}
	wg.Wait()

	acct, err := s.Load("712345678")
	require.NoError(t, err)
	assert.Len(t, acct.Bills, 1)
}

func TestReplaceUnknownBillFails(t *testing.T) {
	s := newTestStore(t)
	err := s.Replace("712345678", entity.BillRecord{BillNo: "INV-404", BillDate: "2024-01-01"})
	assert.Error(t, err)
}

func TestClearRemovesDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append("712345678", entity.BillRecord{BillNo: "A", BillDate: "2024-01-01"}))
	require.NoError(t, s.Clear("712345678"))

	_, err := os.Stat(s.Path("712345678"))
	assert.True(t, os.IsNotExist(err))

	// clearing again is a no-op
	require.NoError(t, s.Clear("712345678"))
}

func TestIsDuplicate(t *testing.T) {
	stored := []entity.BillRecord{
		{BillNo: "INV-001", BillDate: "2024-03-15"},
		{BillNo: "INV-002", BillDate: "2024-04-15"},
	}

	assert.True(t, IsDuplicate(stored, entity.BillRecord{BillNo: "INV-001", BillDate: "2024-03-15"}))
	// same number, different date is a different document
	assert.False(t, IsDuplicate(stored, entity.BillRecord{BillNo: "INV-001", BillDate: "2024-05-15"}))
	// extracted PDF bills carry no bill number and never collide
	assert.False(t, IsDuplicate(stored, entity.BillRecord{BillDate: "2024-03-15"}))
}
