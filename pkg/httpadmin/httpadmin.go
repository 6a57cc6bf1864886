// Package httpadmin exposes a read-only ops surface over HTTP: health,
// Prometheus metrics and JSON views of balances, kassa and the full export
// snapshot. It never writes state.
package httpadmin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akbarov/tushlikbot/pkg/logger"
	"github.com/akbarov/tushlikbot/pkg/models"
	"github.com/akbarov/tushlikbot/pkg/roster"
	"github.com/akbarov/tushlikbot/pkg/storage"
)

// Server serves the admin endpoints
type Server struct {
	store  *storage.Store
	roster *roster.Service
	logger *logger.Logger
}

// New creates a new admin server
func New(store *storage.Store, rosterService *roster.Service) *Server {
	return &Server{
		store:  store,
		roster: rosterService,
		logger: logger.New("httpadmin"),
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/balances", s.balancesHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/kassa", s.kassaHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/export", s.exportHandler).Methods(http.MethodGet)
	return r
}

// ListenAndServe runs the server until it fails
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("Admin HTTP server listening on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type balanceEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

func (s *Server) balancesHandler(w http.ResponseWriter, _ *http.Request) {
	accounts, err := s.roster.Accounts()
	if err != nil {
		s.logger.Error("Failed to load accounts: %v", err)
		http.Error(w, "failed to load state", http.StatusInternalServerError)
		return
	}
	entries := make([]balanceEntry, 0, len(accounts))
	for _, acct := range accounts {
		entries = append(entries, balanceEntry{ID: acct.ID, Name: acct.Name, Balance: acct.Balance})
	}
	writeJSON(w, entries)
}

func (s *Server) kassaHandler(w http.ResponseWriter, _ *http.Request) {
	var kassa int64
	err := s.store.View(func(state *models.State) error {
		kassa = state.Kassa
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to load kassa: %v", err)
		http.Error(w, "failed to load state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"kassa": kassa})
}

type exportUser struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Balance int64  `json:"balance"`
}

type exportPayload struct {
	Users        map[string]exportUser `json:"users"`
	TotalBalance int64                 `json:"total_balance"`
	Kassa        int64                 `json:"kassa"`
	ExportDate   string                `json:"export_date"`
}

func (s *Server) exportHandler(w http.ResponseWriter, _ *http.Request) {
	payload := exportPayload{Users: make(map[string]exportUser)}
	err := s.store.View(func(state *models.State) error {
		for id, acct := range state.Users {
			payload.Users[id] = exportUser{Name: acct.Name, Phone: acct.Phone, Balance: acct.Balance}
			payload.TotalBalance += acct.Balance
		}
		payload.Kassa = state.Kassa
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to export state: %v", err)
		http.Error(w, "failed to load state", http.StatusInternalServerError)
		return
	}
	payload.ExportDate = time.Now().Format("2006-01-02 15:04:05")
	writeJSON(w, payload)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
