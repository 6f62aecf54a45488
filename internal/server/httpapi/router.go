package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the route table. Auth endpoints and ledger metadata are
// public; the account and transfer surfaces require a Bearer token.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/challenge", s.handleChallenge).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	api.HandleFunc("/ledger/info", s.handleLedgerInfo).Methods(http.MethodGet)
	api.HandleFunc("/ledger/balance/{principal}", s.handleBalance).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.authMiddleware)

	protected.HandleFunc("/account", s.handleInitialize).Methods(http.MethodPost)
	protected.HandleFunc("/account", s.handleStatus).Methods(http.MethodGet)
	protected.HandleFunc("/account/ping", s.handlePing).Methods(http.MethodPost)
	protected.HandleFunc("/account/backup", s.handleSetBackup).Methods(http.MethodPut)
	protected.HandleFunc("/account/timeout", s.handleSetTimeout).Methods(http.MethodPut)
	protected.HandleFunc("/account/claim", s.handleClaim).Methods(http.MethodPost)

	protected.HandleFunc("/ledger/transfer", s.handleTransfer).Methods(http.MethodPost)

	protected.HandleFunc("/admin/snapshot", s.handleSnapshot).Methods(http.MethodPost)

	return r
}
