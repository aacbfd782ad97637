package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/code/data/position"
	"github.com/code-payments/presale-server/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	records []*position.Record
	last    uint64
	journal *journal
}

// journal holds what a rollback needs. Records are only ever appended, so
// creations are undone by truncating to length.
type journal struct {
	length int
	last   uint64
	prior  map[string]*position.Record
}

type ById []*position.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory position.Store
func New() position.Store {
	return &store{}
}

// Put implements position.Store.Put
func (s *store) Put(_ context.Context, data *position.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByAddress(data.Address) != nil {
		return position.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	data.CreatedAt = time.Now()
	data.LastUpdatedAt = data.CreatedAt

	s.records = append(s.records, data.Clone())
	return nil
}

// Update implements position.Store.Update
func (s *store) Update(_ context.Context, data *position.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return position.ErrNotFound
	}
	if item.IsClaimed {
		return position.ErrClaimedIsTerminal
	}

	s.journalUpdate(item)
	item.Amount = data.Amount
	item.IsClaimed = data.IsClaimed
	item.LastUpdatedAt = time.Now()

	item.CopyTo(data)
	return nil
}

// GetByAddress implements position.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*position.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(address); item != nil {
		return item.Clone(), nil
	}
	return nil, position.ErrNotFound
}

// GetAllBySale implements position.Store.GetAllBySale
func (s *store) GetAllBySale(_ context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*position.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.filter(s.findBySale(sale), cursor, limit, direction)
	if len(res) == 0 {
		return nil, position.ErrNotFound
	}
	return res, nil
}

// BeginJournal starts recording the prior state of every record written, so
// EndJournal can undo them
func (s *store) BeginJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = &journal{
		length: len(s.records),
		last:   s.last,
		prior:  make(map[string]*position.Record),
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

func (s *store) journalUpdate(item *position.Record) {
	if s.journal == nil {
		return
	}
	if _, ok := s.journal.prior[item.Address]; !ok {
		s.journal.prior[item.Address] = item.Clone()
	}
}

func (s *store) findByAddress(address string) *position.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) findBySale(sale string) []*position.Record {
	var res []*position.Record
	for _, item := range s.records {
		if item.Sale == sale {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*position.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*position.Record {
	var start uint64
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*position.Record
	for _, item := range items {
		if item.Id > start && direction == query.Ascending {
			res = append(res, item)
		}
		if item.Id < start && direction == query.Descending {
			res = append(res, item)
		}
	}

	if direction == query.Descending {
		sort.Sort(sort.Reverse(ById(res)))
	}

	if limit > 0 && len(res) > int(limit) {
		return res[:limit]
	}
	return res
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
