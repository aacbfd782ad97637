package presale_server

import (
	"net/http"
)

// getSaleVault handles GET /v1/custody/vaults/{mint}
func (s *server) getSaleVault(w http.ResponseWriter, r *http.Request) {
	mint, err := parseAccountParam(r, "mint")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	accounts, err := s.engine.SaleVault(mint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, toSaleVaultView(accounts))
}

// getPositionAccounts handles GET /v1/custody/positions/{mint}/{buyer}
func (s *server) getPositionAccounts(w http.ResponseWriter, r *http.Request) {
	mint, err := parseAccountParam(r, "mint")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buyer, err := parseAccountParam(r, "buyer")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	accounts, err := s.engine.PositionAccounts(buyer, mint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, toPositionAccountsView(accounts))
}
