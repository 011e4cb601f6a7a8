// internal/handler/churn_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/model"
	"github.com/unclebandit/churn-etl/internal/repository"
)

// ChurnReader is the read side of the churn repository
type ChurnReader interface {
	GetByCustomerID(ctx context.Context, customerID string) (*model.CustomerRecord, error)
	Stats(ctx context.Context) (*repository.ChurnStats, error)
}

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ChurnHandler holds the dependencies for the read-only churn endpoints
type ChurnHandler struct {
	Repo      ChurnReader
	Databases map[string]Pinger
}

// GetCustomerHandler returns the loaded row of a single customer
func (h *ChurnHandler) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	customerID := strings.TrimSpace(chi.URLParam(r, "customerID"))
	if customerID == "" {
		http.Error(w, "invalid customer id", http.StatusBadRequest)
		return
	}

	rec, err := h.Repo.GetByCustomerID(r.Context(), customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Msg("failed to fetch customer")
		http.Error(w, "failed to fetch customer: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "customer not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// StatsHandler returns churned/active counts of the destination table
func (h *ChurnHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.Stats(r.Context())
	if err != nil {
		http.Error(w, "failed to fetch stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// HealthHandler pings every configured database
func (h *ChurnHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}
	for name, db := range h.Databases {
		if err := db.PingContext(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    overall,
		"databases": checks,
	})
}
