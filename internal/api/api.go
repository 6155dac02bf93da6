// Package api is the web transport: a JSON API over the same ledger and
// orchestrator the Discord bot uses. Dashboard edits go straight to the
// store; conversational traffic goes through /api/chat and keeps the
// confirm-before-mutate discipline.
package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/dmehra/khatabot/internal/config"
	"github.com/dmehra/khatabot/internal/convo"
	"github.com/dmehra/khatabot/internal/intent"
	"github.com/dmehra/khatabot/internal/ledger"
)

type API struct {
	router    *mux.Router
	store     ledger.Store
	extractor intent.Extractor
	orch      *convo.Orchestrator
	config    *config.Config
}

func New(cfg *config.Config, store ledger.Store, extractor intent.Extractor, orch *convo.Orchestrator) *API {
	api := &API{
		router:    mux.NewRouter(),
		store:     store,
		extractor: extractor,
		orch:      orch,
		config:    cfg,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Conversational endpoints
	a.router.HandleFunc("/api/parse", a.handleParse).Methods("POST")
	a.router.HandleFunc("/api/chat", a.handleChat).Methods("POST")

	// Dashboard endpoints (direct ledger access, no confirmation step)
	a.router.HandleFunc("/api/obligations", a.handleListObligations).Methods("GET")
	a.router.HandleFunc("/api/obligations", a.handleCreateObligation).Methods("POST")
	a.router.HandleFunc("/api/obligations/{id}", a.handleGetObligation).Methods("GET")
	a.router.HandleFunc("/api/obligations/{id}", a.handleUpdateObligation).Methods("PATCH")
	a.router.HandleFunc("/api/obligations/{id}", a.handleDeleteObligation).Methods("DELETE")
	a.router.HandleFunc("/api/obligations/{id}/transactions", a.handleAddTransaction).Methods("POST")
	a.router.HandleFunc("/api/obligations/{id}/settle", a.handleSettle).Methods("POST")
}

func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}

	handler := cors.New(corsOptions).Handler(a.router)

	log.Printf("API server listening on http://%s", a.config.WebBind)
	return http.ListenAndServe(a.config.WebBind, handler)
}
