package presale_server

import (
	"net/http"
	"strconv"

	"github.com/code-payments/presale-server/pkg/database/query"
)

// Largest page the stores serve
const maxStorePageSize = 1000

type page struct {
	opts  []query.Option
	limit uint64
}

// parsePage reads the cursor, limit and order query parameters. The limit
// defaults to, and is capped at, the configured max page size.
func (s *server) parsePage(r *http.Request) (*page, error) {
	maxPageSize := s.conf.maxPageSize.Get(r.Context())
	if maxPageSize == 0 || maxPageSize > maxStorePageSize {
		maxPageSize = maxStorePageSize
	}
	params := r.URL.Query()

	limit := maxPageSize
	if value := params.Get("limit"); len(value) > 0 {
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil || parsed == 0 {
			return nil, newRequestError("invalid limit")
		}
		if parsed < limit {
			limit = parsed
		}
	}

	direction := query.Ascending
	if value := params.Get("order"); len(value) > 0 {
		ordering, err := query.ToOrdering(value)
		if err != nil {
			return nil, newRequestError("invalid order")
		}
		direction = ordering
	}

	opts := []query.Option{
		query.WithLimit(limit),
		query.WithDirection(direction),
	}

	if value := params.Get("cursor"); len(value) > 0 {
		cursor, err := query.ParseCursor(value)
		if err != nil {
			return nil, newRequestError("invalid cursor")
		}
		opts = append(opts, query.WithCursor(cursor))
	}

	return &page{opts: opts, limit: limit}, nil
}

// nextCursor is only set when the page is full, since a short page means
// there is nothing left
func nextCursor(p *page, count int, last string) string {
	if uint64(count) < p.limit {
		return ""
	}
	return last
}

type positionsResponse struct {
	Positions  []*positionView `json:"positions"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// getPositions handles GET /v1/sales/{sale}/positions
func (s *server) getPositions(w http.ResponseWriter, r *http.Request) {
	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.parsePage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.engine.GetPositionsBySale(r.Context(), saleAccount, p.opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now()
	resp := &positionsResponse{Positions: make([]*positionView, 0, len(records))}
	for _, record := range records {
		resp.Positions = append(resp.Positions, toPositionView(record, now))
	}
	if len(resp.Positions) > 0 {
		resp.NextCursor = nextCursor(p, len(resp.Positions), resp.Positions[len(resp.Positions)-1].Cursor)
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

type positionResponse struct {
	Position *positionView         `json:"position"`
	Accounts *positionAccountsView `json:"accounts"`
}

// getPosition handles GET /v1/sales/{sale}/positions/{buyer}
func (s *server) getPosition(w http.ResponseWriter, r *http.Request) {
	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buyer, err := parseAccountParam(r, "buyer")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	record, accounts, err := s.engine.GetPosition(r.Context(), saleAccount, buyer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &positionResponse{
		Position: toPositionView(record, s.now()),
		Accounts: toPositionAccountsView(accounts),
	})
}

type eventsResponse struct {
	Events     []*eventView `json:"events"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// getEvents handles GET /v1/sales/{sale}/events
func (s *server) getEvents(w http.ResponseWriter, r *http.Request) {
	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.parsePage(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	records, err := s.engine.GetEvents(r.Context(), saleAccount, p.opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := &eventsResponse{Events: make([]*eventView, 0, len(records))}
	for _, record := range records {
		resp.Events = append(resp.Events, toEventView(record))
	}
	if len(resp.Events) > 0 {
		resp.NextCursor = nextCursor(p, len(resp.Events), resp.Events[len(resp.Events)-1].Cursor)
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}
