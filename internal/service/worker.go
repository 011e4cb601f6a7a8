// internal/service/worker.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/model"
)

// MessageSender delivers rendered text to a chat channel
type MessageSender interface {
	SendMessage(ctx context.Context, text string) error
}

// Worker turns run outcome events into chat notifications
type Worker struct {
	Sender          MessageSender
	SuccessTemplate string
	FailureTemplate string
	Timeout         time.Duration
}

// Constructor
func NewWorker(sender MessageSender) *Worker {
	return &Worker{
		Sender:          sender,
		SuccessTemplate: DefaultSuccessTemplate,
		FailureTemplate: DefaultFailureTemplate,
		Timeout:         30 * time.Second,
	}
}

// WithTemplates overrides the message templates that are non-empty.
func (w *Worker) WithTemplates(success, failure string) *Worker {
	if success != "" {
		w.SuccessTemplate = success
	}
	if failure != "" {
		w.FailureTemplate = failure
	}
	return w
}

// Handle is a queue handler. Returning an error asks the queue to redeliver.
func (w *Worker) Handle(payload any) error {
	outcome, err := DecodeOutcome(payload)
	if err != nil {
		// malformed events are dropped, a retry would not fix them
		log.Error().Err(err).Msg("invalid run outcome payload")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	text := RenderOutcome(outcome, w.SuccessTemplate, w.FailureTemplate)
	if err := w.Sender.SendMessage(ctx, text); err != nil {
		log.Warn().Err(err).Str("run_id", outcome.RunID).Msg("failed to send run notification")
		return err
	}

	log.Info().Str("run_id", outcome.RunID).Str("outcome", string(outcome.Outcome)).Msg("run notification sent")
	return nil
}

// DecodeOutcome accepts the payload shapes produced by the in-memory and
// AMQP queues.
func DecodeOutcome(payload any) (*model.RunOutcome, error) {
	switch p := payload.(type) {
	case *model.RunOutcome:
		if p == nil {
			return nil, fmt.Errorf("nil run outcome")
		}
		return p, nil
	case model.RunOutcome:
		return &p, nil
	case []byte:
		var o model.RunOutcome
		if err := json.Unmarshal(p, &o); err != nil {
			return nil, fmt.Errorf("decode run outcome: %w", err)
		}
		if o.RunID == "" {
			return nil, fmt.Errorf("run outcome without run_id")
		}
		return &o, nil
	default:
		return nil, fmt.Errorf("unexpected payload type %T", payload)
	}
}
