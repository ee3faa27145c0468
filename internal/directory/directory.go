package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
)

// Directory is the static customer registry, loaded once at startup from a
// JSON file keyed by phone number.
type Directory struct {
	customers map[string]entity.Customer
	logger    *zap.Logger
}

// Load reads the registry file. The file maps phone numbers (with or without
// the leading zero) to customer records.
func Load(path string, logger *zap.Logger) (*Directory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customer directory: %w", err)
	}
	var customers map[string]entity.Customer
	if err := json.Unmarshal(data, &customers); err != nil {
		return nil, fmt.Errorf("decode customer directory: %w", err)
	}
	logger.Info("directory.load.ok", zap.String("path", path), zap.Int("customers", len(customers)))
	return &Directory{customers: customers, logger: logger}, nil
}

// Validate looks a phone number up, first verbatim and then with a single
// leading zero stripped. "0712345678" and "712345678" resolve to the same
// customer; "00712345678" does not resolve to "712345678".
func (d *Directory) Validate(phone string) (entity.Customer, string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return entity.Customer{}, "", common.NewAppError("PHONE_EMPTY", "phone number is required", common.ErrInvalidInput)
	}
	if c, ok := d.customers[phone]; ok {
		return c, phone, nil
	}
	stripped := entity.NormalizeUserID(phone)
	if stripped != phone {
		if c, ok := d.customers[stripped]; ok {
			return c, stripped, nil
		}
	}
	d.logger.Info("directory.validate.miss", zap.String("phone", phone))
	return entity.Customer{}, "", common.NewAppError("CUSTOMER_NOT_FOUND", "no customer for phone number", common.ErrNotFound)
}

// Count returns the number of registered customers.
func (d *Directory) Count() int {
	return len(d.customers)
}
