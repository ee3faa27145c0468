package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
)

const sheetName = "Bills"

var headers = []string{"Bill #", "Bill No", "Bill Date", "Label", "Value"}

// Service renders a user's bill collection as a long-format XLSX workbook:
// one row per label per bill.
type Service struct {
	logger *zap.Logger
}

// NewService builds the exporter.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Workbook renders the bills and returns the XLSX bytes.
func (s *Service) Workbook(userID string, bills []entity.BillRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, common.NewAppError("EXPORT_FAILED", "rename sheet", err)
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, common.NewAppError("EXPORT_FAILED", "header cell name", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, common.NewAppError("EXPORT_FAILED", "write header", err)
		}
	}

	row := 2
	for i, b := range bills {
		for _, key := range b.Keys() {
			if err := s.writeRow(f, row, i+1, b, key); err != nil {
				return nil, err
			}
			row++
		}
	}

	// widths tuned for the label column, the rest stay compact
	_ = f.SetColWidth(sheetName, "B", "C", 16)
	_ = f.SetColWidth(sheetName, "D", "D", 36)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, common.NewAppError("EXPORT_FAILED", "write workbook", err)
	}
	s.logger.Info("export.xlsx.ok",
		zap.String("user_id", entity.NormalizeUserID(userID)),
		zap.Int("bills", len(bills)),
		zap.Int("rows", row-2),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (s *Service) writeRow(f *excelize.File, row, billIdx int, b entity.BillRecord, key string) error {
	values := []any{billIdx, b.BillNo, b.BillDate, key, fieldValue(b, key)}
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return common.NewAppError("EXPORT_FAILED", "cell name", err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return common.NewAppError("EXPORT_FAILED", fmt.Sprintf("write row %d", row), err)
		}
	}
	return nil
}

func fieldValue(b entity.BillRecord, key string) any {
	switch key {
	case entity.FieldBillNo:
		return b.BillNo
	case entity.FieldBillDate:
		return b.BillDate
	case entity.FieldAmountDue:
		return b.AmountDue
	case entity.FieldExtraCharge:
		return b.ExtraCharge
	default:
		return b.Labels[key]
	}
}
