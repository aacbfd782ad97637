package presale_server

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/grpc/client"
)

type nativeBalanceResponse struct {
	Account  string `json:"account"`
	Lamports Amount `json:"lamports"`
}

// getNativeBalance handles GET /v1/accounts/{account}/native-balance
func (s *server) getNativeBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAccountParam(r, "account")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lamports, err := s.ledger.GetNativeBalance(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &nativeBalanceResponse{
		Account:  account.PublicKey().ToBase58(),
		Lamports: Amount(lamports),
	})
}

type tokenBalanceResponse struct {
	Account string `json:"account"`
	Balance Amount `json:"balance"`
}

// getTokenBalance handles GET /v1/token-accounts/{account}
func (s *server) getTokenBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAccountParam(r, "account")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	balance, err := s.ledger.GetTokenBalance(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, &tokenBalanceResponse{
		Account: account.PublicKey().ToBase58(),
		Balance: Amount(balance),
	})
}

type airdropRequest struct {
	Owner    string `json:"owner"`
	Lamports Amount `json:"lamports"`
}

// airdrop handles POST /v1/dev/airdrop. Only routed when dev funding is
// enabled.
func (s *server) airdrop(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req airdropRequest
	if err := decodeBody(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	owner, err := parseAccount("owner", req.Owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lamports, err := s.ledger.Airdrop(r.Context(), owner, uint64(req.Lamports))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	client.InjectLoggingMetadata(r.Context(), s.log).WithFields(logrus.Fields{
		"method":   "airdrop",
		"owner":    owner.PublicKey().ToBase58(),
		"lamports": uint64(req.Lamports),
	}).Info("dev airdrop")

	s.writeJSON(w, r, http.StatusOK, &nativeBalanceResponse{
		Account:  owner.PublicKey().ToBase58(),
		Lamports: Amount(lamports),
	})
}

type mintToRequest struct {
	TokenAccount string `json:"token_account"`
	Amount       Amount `json:"amount"`
}

// mintTo handles POST /v1/dev/mint
func (s *server) mintTo(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req mintToRequest
	if err := decodeBody(body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tokenAccount, err := parseAccount("token_account", req.TokenAccount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	balance, err := s.ledger.MintTo(r.Context(), tokenAccount, uint64(req.Amount))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	client.InjectLoggingMetadata(r.Context(), s.log).WithFields(logrus.Fields{
		"method":        "mintTo",
		"token_account": tokenAccount.PublicKey().ToBase58(),
		"amount":        uint64(req.Amount),
	}).Info("dev mint")

	s.writeJSON(w, r, http.StatusOK, &tokenBalanceResponse{
		Account: tokenAccount.PublicKey().ToBase58(),
		Balance: Amount(balance),
	})
}
