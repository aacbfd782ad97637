package presale_server

import (
	"encoding/base64"
	"net/http"

	"github.com/pkg/errors"
)

// programAccountResponse carries a record in the program's fixed-width account
// layout, discriminator included, so clients that decode on-chain accounts
// can read it unchanged
type programAccountResponse struct {
	Address string `json:"address"`
	Size    int    `json:"size"`
	Data    string `json:"data"`
}

func newProgramAccountResponse(address string, data []byte) *programAccountResponse {
	return &programAccountResponse{
		Address: address,
		Size:    len(data),
		Data:    base64.StdEncoding.EncodeToString(data),
	}
}

// getSaleAccount handles GET /v1/sales/{sale}/account
func (s *server) getSaleAccount(w http.ResponseWriter, r *http.Request) {
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

	programAccount, err := record.ToProgramAccount()
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "error converting sale record"))
		return
	}

	s.writeJSON(w, r, http.StatusOK, newProgramAccountResponse(record.Address, programAccount.Marshal()))
}

// getPositionAccount handles GET /v1/sales/{sale}/positions/{buyer}/account
func (s *server) getPositionAccount(w http.ResponseWriter, r *http.Request) {
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

	record, _, err := s.engine.GetPosition(r.Context(), saleAccount, buyer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	programAccount, err := record.ToProgramAccount()
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "error converting position record"))
		return
	}

	s.writeJSON(w, r, http.StatusOK, newProgramAccountResponse(record.Address, programAccount.Marshal()))
}
