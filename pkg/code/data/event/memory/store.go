package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/code/data/event"
	"github.com/code-payments/presale-server/pkg/database/query"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*event.Record
	journal *journal
}

// The log is append only, so its length is all a rollback needs
type journal struct {
	length int
	last   uint64
}

type ById []*event.Record

func (a ById) Len() int           { return len(a) }
func (a ById) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ById) Less(i, j int) bool { return a[i].Id < a[j].Id }

// New returns a new in memory event.Store
func New() event.Store {
	return &store{}
}

// Append implements event.Store.Append
func (s *store) Append(_ context.Context, data *event.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEventId(data.EventId) != nil {
		return event.ErrAlreadyExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	s.records = append(s.records, data.Clone())
	return nil
}

// Get implements event.Store.Get
func (s *store) Get(_ context.Context, eventId string) (*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByEventId(eventId)
	if item == nil {
		return nil, event.ErrNotFound
	}
	return item.Clone(), nil
}

// GetAllBySale implements event.Store.GetAllBySale
func (s *store) GetAllBySale(_ context.Context, sale string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.filter(s.findBySale(sale), cursor, limit, direction)
	if len(res) == 0 {
		return nil, event.ErrNotFound
	}
	return res, nil
}

// BeginJournal marks the current end of the log, so EndJournal can undo
// appends made since
func (s *store) BeginJournal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = &journal{length: len(s.records), last: s.last}
}

// EndJournal stops recording. With rollback, events appended since
// BeginJournal are dropped.
func (s *store) EndJournal(rollback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.journal
	s.journal = nil
	if j == nil || !rollback {
		return
	}

	s.records = s.records[:j.length]
	s.last = j.last
}

func (s *store) findByEventId(eventId string) *event.Record {
	for _, item := range s.records {
		if item.EventId == eventId {
			return item
		}
	}
	return nil
}

func (s *store) findBySale(sale string) []*event.Record {
	var res []*event.Record
	for _, item := range s.records {
		if item.Sale == sale {
			res = append(res, item.Clone())
		}
	}
	return res
}

func (s *store) filter(items []*event.Record, cursor query.Cursor, limit uint64, direction query.Ordering) []*event.Record {
	var start uint64
	if direction == query.Descending {
		start = s.last + 1
	}
	if len(cursor) > 0 {
		start = cursor.ToUint64()
	}

	var res []*event.Record
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

	s.last = 0
	s.records = nil
}
