// internal/controller/run_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/model"
	"github.com/unclebandit/churn-etl/internal/scheduler"
)

// RunTrigger starts a pipeline run on demand
type RunTrigger interface {
	Trigger(ctx context.Context) (*model.RunOutcome, error)
	Running() bool
}

type RunController struct {
	Scheduler RunTrigger
}

// TriggerRun runs the pipeline synchronously and returns its outcome.
// 409 when a run is already active, 500 when the run failed. The run is not
// cancelled when the client goes away.
func (c *RunController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	outcome, err := c.Scheduler.Trigger(context.WithoutCancel(r.Context()))
	if errors.Is(err, scheduler.ErrRunInProgress) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Error().Err(err).Msg("triggered run failed")
		if outcome == nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(outcome)
}

// RunStatus reports whether a run is in progress
func (c *RunController) RunStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": c.Scheduler.Running(),
	})
}
