package presale_server

import (
	"net/http"

	"github.com/code-payments/presale-server/pkg/grpc/client"
)

type purchaseRequest struct {
	Buyer  string `json:"buyer"`
	Amount Amount `json:"amount"`
}

type purchaseResponse struct {
	Sale            *saleView     `json:"sale"`
	Position        *positionView `json:"position"`
	Cost            Amount        `json:"cost"`
	IsFirstPurchase bool          `json:"is_first_purchase"`
}

// purchase handles POST /v1/sales/{sale}/purchase. The buyer must sign and
// is rate limited.
func (s *server) purchase(w http.ResponseWriter, r *http.Request) {
	log := client.InjectLoggingMetadata(r.Context(), s.log.WithField("method", "purchase"))

	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req purchaseRequest
	signed, err := s.readSignedBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	buyer, err := parseAccount("buyer", req.Buyer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.authenticate(r.Context(), signed, buyer); err != nil {
		log.WithError(err).Debug("request not authenticated")
		s.writeError(w, r, err)
		return
	}

	allowed, err := s.purchaseLimiter.Allow(r.Context(), "purchase:"+buyer.PublicKey().ToBase58())
	if err != nil {
		log.WithError(err).Warn("failure checking purchase rate limit")
	} else if !allowed {
		s.writeError(w, r, errRateLimited)
		return
	}

	result, err := s.engine.Purchase(r.Context(), saleAccount, buyer, uint64(req.Amount))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &purchaseResponse{
		Sale:            toSaleView(result.Sale),
		Position:        toPositionView(result.Position, s.now()),
		Cost:            Amount(result.Cost),
		IsFirstPurchase: result.IsFirstPurchase,
	})
}

type claimRequest struct {
	Buyer string `json:"buyer"`
}

type claimResponse struct {
	Position    *positionView `json:"position"`
	Amount      Amount        `json:"amount"`
	FreeBalance string        `json:"free_balance"`
}

// claim handles POST /v1/sales/{sale}/claim
func (s *server) claim(w http.ResponseWriter, r *http.Request) {
	log := client.InjectLoggingMetadata(r.Context(), s.log.WithField("method", "claim"))

	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req claimRequest
	signed, err := s.readSignedBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	buyer, err := parseAccount("buyer", req.Buyer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.authenticate(r.Context(), signed, buyer); err != nil {
		log.WithError(err).Debug("request not authenticated")
		s.writeError(w, r, err)
		return
	}

	result, err := s.engine.Claim(r.Context(), saleAccount, buyer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &claimResponse{
		Position:    toPositionView(result.Position, s.now()),
		Amount:      Amount(result.Amount),
		FreeBalance: result.FreeBalance.PublicKey().ToBase58(),
	})
}
