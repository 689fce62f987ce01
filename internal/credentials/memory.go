package credentials

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cribfeed/internal/common"
	"github.com/dmitrijs2005/cribfeed/internal/models"
)

type memoryRecord struct {
	account *models.Account
	hash    []byte
}

// MemoryStore keeps accounts in process memory. Accounts are copied on the
// way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*memoryRecord
	byID    map[string]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*memoryRecord),
		byID:    make(map[string]*memoryRecord),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byEmail[EmailKey(email)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec.account.Clone(), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec.account.Clone(), nil
}

func (s *MemoryStore) Add(_ context.Context, account *models.Account, passwordHash []byte) error {
	if err := account.Validate(); err != nil {
		return err
	}

	key := EmailKey(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[key]; ok {
		return common.ErrAccountExists
	}
	if _, ok := s.byID[account.ID]; ok {
		return common.ErrAccountExists
	}

	rec := &memoryRecord{account: account.Clone(), hash: append([]byte(nil), passwordHash...)}
	s.byEmail[key] = rec
	s.byID[account.ID] = rec
	return nil
}

func (s *MemoryStore) Verify(_ context.Context, email, password string) (bool, error) {
	s.mu.RLock()
	rec, ok := s.byEmail[EmailKey(email)]
	s.mu.RUnlock()

	if !ok {
		checkPassword(dummyHash, password)
		return false, nil
	}
	return checkPassword(rec.hash, password), nil
}

// Len reports the number of known accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
