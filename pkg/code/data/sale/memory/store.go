package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/code/data/sale"
)

type store struct {
	mu      sync.Mutex
	records []*sale.Record
	last    uint64
	journal *journal
}

// journal holds what a rollback needs. Records are only ever appended, so
// creations are undone by truncating to length.
type journal struct {
	length int
	last   uint64
	prior  map[string]*sale.Record
}

// New returns a new in memory sale.Store
func New() sale.Store {
	return &store{}
}

// Put implements sale.Store.Put
func (s *store) Put(_ context.Context, data *sale.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByAddress(data.Address) != nil || s.findByMint(data.Mint) != nil || s.findByVault(data.VaultAddress) != nil {
		return sale.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	s.records = append(s.records, data.Clone())
	return nil
}

// Update implements sale.Store.Update
func (s *store) Update(_ context.Context, data *sale.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return sale.ErrNotFound
	}
	if data.UnitsSold > item.TotalAllocation {
		return sale.ErrInvalidRecord
	}

	s.journalUpdate(item)
	item.UnitsSold = data.UnitsSold
	item.IsActive = data.IsActive
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)
	return nil
}

// GetByAddress implements sale.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*sale.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		return item.Clone(), nil
	}
	return nil, sale.ErrNotFound
}

// GetByMint implements sale.Store.GetByMint
func (s *store) GetByMint(_ context.Context, mint string) (*sale.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByMint(mint); item != nil {
		return item.Clone(), nil
	}
	return nil, sale.ErrNotFound
}

// BeginJournal starts recording the prior state of every record written, so
// EndJournal can undo them
func (s *store) BeginJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = &journal{
		length: len(s.records),
		last:   s.last,
		prior:  make(map[string]*sale.Record),
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

	for _, item := range s.records[:j.length] {
		if prior, ok := j.prior[item.Address]; ok {
			prior.CopyTo(item)
		}
	}
	s.records = s.records[:j.length]
	s.last = j.last
}

func (s *store) journalUpdate(item *sale.Record) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.prior[item.Address]; !ok {
		s.journal.prior[item.Address] = item.Clone()
	}
}

func (s *store) findByAddress(address string) *sale.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) findByMint(mint string) *sale.Record {
	for _, item := range s.records {
		if item.Mint == mint {
			return item
		}
	}
	return nil
}

func (s *store) findByVault(vault string) *sale.Record {
	for _, item := range s.records {
		if item.VaultAddress == vault {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
