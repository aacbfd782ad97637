package presale_server

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/code/presale"
	"github.com/code-payments/presale-server/pkg/grpc/client"
)

type initializeSaleRequest struct {
	Sale            string `json:"sale"`
	Authority       string `json:"authority"`
	Mint            string `json:"mint"`
	Treasury        string `json:"treasury"`
	PricePerUnit    Amount `json:"price_per_unit"`
	TotalAllocation Amount `json:"total_allocation"`
}

type saleResponse struct {
	Sale *saleView `json:"sale"`
}

// initializeSale handles POST /v1/sales. Both the authority and the sale
// identity must sign.
func (s *server) initializeSale(w http.ResponseWriter, r *http.Request) {
	log := client.InjectLoggingMetadata(r.Context(), s.log.WithField("method", "initializeSale"))

	var req initializeSaleRequest
	signed, err := s.readSignedBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	saleAccount, err := parseAccount("sale", req.Sale)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	authority, err := parseAccount("authority", req.Authority)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mint, err := parseAccount("mint", req.Mint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	treasury, err := parseAccount("treasury", req.Treasury)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.authenticate(r.Context(), signed, authority, saleAccount); err != nil {
		log.WithError(err).Debug("request not authenticated")
		s.writeError(w, r, err)
		return
	}

	record, err := s.engine.Initialize(r.Context(), &presale.InitializeArgs{
		Authority:       authority,
		Sale:            saleAccount,
		Mint:            mint,
		Treasury:        treasury,
		PricePerUnit:    uint64(req.PricePerUnit),
		TotalAllocation: uint64(req.TotalAllocation),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	log.WithFields(logrus.Fields{
		"sale": record.Address,
		"mint": record.Mint,
	}).Info("sale initialized")

	s.writeJSON(w, r, http.StatusCreated, &saleResponse{Sale: toSaleView(record)})
}

// getSale handles GET /v1/sales/{sale}
func (s *server) getSale(w http.ResponseWriter, r *http.Request) {
	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	record, err := s.engine.GetSale(r.Context(), saleAccount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &saleResponse{Sale: toSaleView(record)})
}

type setActiveRequest struct {
	Authority string `json:"authority"`
	IsActive  *bool  `json:"is_active"`
}

// setActive handles POST /v1/sales/{sale}/active
func (s *server) setActive(w http.ResponseWriter, r *http.Request) {
	log := client.InjectLoggingMetadata(r.Context(), s.log.WithField("method", "setActive"))

	saleAccount, err := parseAccountParam(r, "sale")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req setActiveRequest
	signed, err := s.readSignedBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.IsActive == nil {
		s.writeError(w, r, newRequestError("is_active is required"))
		return
	}

	caller, err := parseAccount("authority", req.Authority)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.authenticate(r.Context(), signed, caller); err != nil {
		log.WithError(err).Debug("request not authenticated")
		s.writeError(w, r, err)
		return
	}

	record, err := s.engine.SetActive(r.Context(), saleAccount, caller, *req.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &saleResponse{Sale: toSaleView(record)})
}
