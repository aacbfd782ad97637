package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/code/data/balance"
)

type store struct {
	mu      sync.Mutex
	byOwner map[string]*balance.Record
	last    uint64
	journal *journal
}

// journal holds what a rollback needs. A nil prior marks a record created
// while journaling.
type journal struct {
	last  uint64
	prior map[string]*balance.Record
}

// New returns a new in memory balance.Store
func New() balance.Store {
	return &store{
		byOwner: make(map[string]*balance.Record),
	}
}

// Save implements balance.Store.Save
func (s *store) Save(_ context.Context, data *balance.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.journalWrite(data.Owner)

	item, ok := s.byOwner[data.Owner]
	if !ok {
		s.last++
		item = &balance.Record{
			Id:    s.last,
			Owner: data.Owner,
		}
		s.byOwner[data.Owner] = item
	}

	item.Lamports = data.Lamports
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)
	return nil
}

// Get implements balance.Store.Get
func (s *store) Get(_ context.Context, owner string) (*balance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.byOwner[owner]
	if !ok {
		return nil, balance.ErrNotFound
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
		prior: make(map[string]*balance.Record),
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

	for owner, prior := range j.prior {
		if prior == nil {
			delete(s.byOwner, owner)
			continue
		}
		s.byOwner[owner] = prior
	}
	s.last = j.last
}

// journalWrite must be called before the record at owner is created or changed
func (s *store) journalWrite(owner string) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.prior[owner]; ok {
		return
	}

	var prior *balance.Record
	if item, ok := s.byOwner[owner]; ok {
		prior = item.Clone()
	}
	s.journal.prior[owner] = prior
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOwner = make(map[string]*balance.Record)
	s.last = 0
}
