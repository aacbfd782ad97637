package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/code/data/tokenaccount"
)

type store struct {
	mu        sync.Mutex
	byAddress map[string]*tokenaccount.Record
	last      uint64
	journal   *journal
}

// journal holds what a rollback needs. A nil prior marks a record created
// while journaling.
type journal struct {
	last  uint64
	prior map[string]*tokenaccount.Record
}

// New returns a new in memory tokenaccount.Store
func New() tokenaccount.Store {
	return &store{
		byAddress: make(map[string]*tokenaccount.Record),
	}
}

// Put implements tokenaccount.Store.Put
func (s *store) Put(_ context.Context, data *tokenaccount.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAddress[data.Address]; ok {
		return tokenaccount.ErrAlreadyExists
	}

	s.journalWrite(data.Address)
	s.last++
	data.Id = s.last
	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	s.byAddress[data.Address] = data.Clone()
	return nil
}

// UpdateBalance implements tokenaccount.Store.UpdateBalance
func (s *store) UpdateBalance(_ context.Context, address string, balance uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byAddress[address]
	if !ok {
		return tokenaccount.ErrNotFound
	}

	s.journalWrite(address)
	item.Balance = balance
	item.LastUpdatedAt = time.Now()
	return nil
}

// GetByAddress implements tokenaccount.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*tokenaccount.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byAddress[address]
	if !ok {
		return nil, tokenaccount.ErrNotFound
	}
	return item.Clone(), nil
}

// BeginJournal starts recording the prior state of every record written, so
// EndJournal can undo them
func (s *store) BeginJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = &journal{
		last:  s.last,
		prior: make(map[string]*tokenaccount.Record),
	}
}

// EndJournal stops recording. With rollback, every write since BeginJournal
// is undone.
func (s *store) EndJournal(rollback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.journal
	s.journal = nil
	if j == nil || !rollback {
		return
	}

	for address, prior := range j.prior {
		if prior == nil {
			delete(s.byAddress, address)
			continue
		}
		s.byAddress[address] = prior
	}
	s.last = j.last
}

// journalWrite must be called before the record at address is created or changed
func (s *store) journalWrite(address string) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.prior[address]; ok {
		return
	}

	var prior *tokenaccount.Record
	if item, ok := s.byAddress[address]; ok {
		prior = item.Clone()
	}
	s.journal.prior[address] = prior
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byAddress = make(map[string]*tokenaccount.Record)
	s.last = 0
}
