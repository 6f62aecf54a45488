package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lastping/internal/common"
	"github.com/dmitrijs2005/lastping/internal/identity"
	"github.com/dmitrijs2005/lastping/internal/server/services"
	"github.com/dmitrijs2005/lastping/internal/timex"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type challengeRequest struct {
	Principal string `json:"principal"`
}

type challengeResponse struct {
	Challenge string `json:"challenge"`
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	nonce, err := s.auth.Challenge(r.Context(), req.Principal)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, challengeResponse{Challenge: nonce})
}

type loginRequest struct {
	Principal string `json:"principal"`
	Signature string `json:"signature"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Principal, req.Signature)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pair, err := s.auth.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	view, err := s.accounts.Initialize(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	view, err := s.accounts.Status(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	view, err := s.accounts.Ping(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

type setBackupRequest struct {
	Backup string `json:"backup"`
}

func (s *Server) handleSetBackup(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	var req setBackupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	backup, err := identity.FromText(req.Backup)
	if err != nil {
		respondError(w, fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument))
		return
	}

	if err := s.accounts.SetBackup(r.Context(), caller, backup); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"backup": backup.String()})
}

type setTimeoutRequest struct {
	Timeout timex.Duration `json:"timeout"`
}

func (s *Server) handleSetTimeout(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	var req setTimeoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := s.accounts.SetTimeout(r.Context(), caller, req.Timeout.Duration); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"timeout": req.Timeout.Nanoseconds()})
}

type claimRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	owner, err := identity.FromText(req.Owner)
	if err != nil {
		respondError(w, fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument))
		return
	}

	view, err := s.accounts.Claim(r.Context(), caller, owner)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

type ledgerInfoResponse struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	Fee         int64  `json:"fee"`
	TotalSupply int64  `json:"totalSupply"`
}

func (s *Server) handleLedgerInfo(w http.ResponseWriter, r *http.Request) {
	supply, err := s.ledger.TotalSupply(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ledgerInfoResponse{
		Name:        s.ledger.Name(),
		Symbol:      s.ledger.Symbol(),
		Decimals:    s.ledger.Decimals(),
		Fee:         s.ledger.Fee(),
		TotalSupply: supply,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	p, err := identity.FromText(mux.Vars(r)["principal"])
	if err != nil {
		respondError(w, fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument))
		return
	}

	balance, err := s.ledger.BalanceOf(r.Context(), p)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

type transferRequest struct {
	To            string `json:"to"`
	Amount        int64  `json:"amount"`
	Fee           *int64 `json:"fee,omitempty"`
	Memo          string `json:"memo,omitempty"`
	CreatedAtTime *int64 `json:"created_at_time,omitempty"`
}

type transferResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerPrincipal(r.Context())

	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	to, err := identity.FromText(req.To)
	if err != nil {
		respondError(w, fmt.Errorf("%s: %w", err, common.ErrorInvalidArgument))
		return
	}

	id, err := s.ledger.Transfer(r.Context(), &services.TransferRequest{
		From:          caller,
		To:            to,
		Amount:        req.Amount,
		Fee:           req.Fee,
		Memo:          req.Memo,
		CreatedAtTime: req.CreatedAtTime,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, transferResponse{ID: id})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	key, err := s.snapshots.Take(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"key": key})
}
