package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
)

// Store persists one flat JSON document per user under its data directory.
// Every mutation rewrites the whole document; a per-user mutex serializes
// writers within the process.
type Store struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates the data directory if needed and returns a Store over it.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the document path for a user ID. IDs are normalized first so
// "0712345678" and "712345678" address the same account.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, "user_data_"+entity.NormalizeUserID(userID)+".json")
}

func (s *Store) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entity.NormalizeUserID(userID)
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Load reads a user's bill collection. A missing document is an empty
// account, not an error.
func (s *Store) Load(userID string) (entity.UserAccount, error) {
	acct := entity.UserAccount{UserID: entity.NormalizeUserID(userID)}
	data, err := os.ReadFile(s.Path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return acct, nil
	}
	if err != nil {
		return acct, common.NewAppError("STORE_READ_FAILED", "read user document", err)
	}
	if err := json.Unmarshal(data, &acct); err != nil {
		return acct, common.NewAppError("STORE_CORRUPT", "decode user document", err)
	}
	return acct, nil
}

// Append adds a bill to the end of the user's collection.
func (s *Store) Append(userID string, rec entity.BillRecord) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	acct, err := s.Load(userID)
	if err != nil {
		return err
	}
	acct.Bills = append(acct.Bills, rec)
	return s.write(userID, acct)
}

// Replace removes every stored bill matching rec's billNo/billDate and
// appends rec. It is the "overwrite" answer to a duplicate upload.
func (s *Store) Replace(userID string, rec entity.BillRecord) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.replaceLocked(userID, rec)
}

func (s *Store) replaceLocked(userID string, rec entity.BillRecord) error {
	acct, err := s.Load(userID)
	if err != nil {
		return err
	}
	kept := make([]entity.BillRecord, 0, len(acct.Bills))
	for _, b := range acct.Bills {
		if b.SameBill(rec) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == len(acct.Bills) {
		return common.NewAppError("BILL_NOT_FOUND", "no stored bill matches the replacement", common.ErrNotFound)
	}
	acct.Bills = append(kept, rec)
	return s.write(userID, acct)
}

// Add stores rec with the duplicate check done under the user's lock, so two
// concurrent uploads of the same document cannot both pass a pre-check and
// append. A collision on billNo/billDate is rejected with ErrDuplicate
// unless replace is true, in which case every colliding record is removed
// and rec is appended. The returned record is the first colliding one, for
// conflict responses.
func (s *Store) Add(userID string, rec entity.BillRecord, replace bool) (entity.BillRecord, bool, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	acct, err := s.Load(userID)
	if err != nil {
		return entity.BillRecord{}, false, err
	}
	if IsDuplicate(acct.Bills, rec) {
		if !replace {
			var existing entity.BillRecord
			for _, b := range acct.Bills {
				if b.SameBill(rec) {
					existing = b
					break
				}
			}
			return existing, false, common.NewAppError("BILL_DUPLICATE",
				"a bill with this number and date already exists", common.ErrDuplicate)
		}
		return entity.BillRecord{}, true, s.replaceLocked(userID, rec)
	}
	acct.Bills = append(acct.Bills, rec)
	return entity.BillRecord{}, false, s.write(userID, acct)
}

// Clear removes the user's document entirely. Clearing a user that has no
// document is a no-op.
func (s *Store) Clear(userID string) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(s.Path(userID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return common.NewAppError("STORE_DELETE_FAILED", "remove user document", err)
	}
	s.logger.Info("store.clear.ok", zap.String("user_id", entity.NormalizeUserID(userID)))
	return nil
}

// write rewrites the whole document atomically: temp file in the same
// directory, then rename.
func (s *Store) write(userID string, acct entity.UserAccount) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return common.NewAppError("STORE_ENCODE_FAILED", "encode user document", err)
	}
	path := s.Path(userID)
	tmp, err := os.CreateTemp(s.dir, "user_data_*.tmp")
	if err != nil {
		return common.NewAppError("STORE_WRITE_FAILED", "create temp document", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return common.NewAppError("STORE_WRITE_FAILED", "write temp document", err)
	}
	if err := tmp.Close(); err != nil {
		return common.NewAppError("STORE_WRITE_FAILED", "close temp document", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return common.NewAppError("STORE_WRITE_FAILED", "rename temp document", err)
	}
	s.logger.Info("store.write.ok",
		zap.String("user_id", entity.NormalizeUserID(userID)),
		zap.Int("bills", len(acct.Bills)),
		zap.Int("bytes", len(data)))
	return nil
}

// IsDuplicate reports whether candidate collides with a stored bill on
// billNo/billDate. Records without a bill number never collide; the PDF
// extraction path does not produce one.
func IsDuplicate(bills []entity.BillRecord, candidate entity.BillRecord) bool {
	if candidate.BillNo == "" {
		return false
	}
	for _, b := range bills {
		if b.SameBill(candidate) {
			return true
		}
	}
	return false
}
