// internal/service/pipeline.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/churn-etl/internal/errors"
	"github.com/unclebandit/churn-etl/internal/metrics"
	"github.com/unclebandit/churn-etl/internal/model"
	"github.com/unclebandit/churn-etl/internal/queue"
	"github.com/unclebandit/churn-etl/internal/repository"
)

// Loader is the part of the churn repository the pipeline writes through
type Loader interface {
	Upsert(ctx context.Context, data *model.Dataset) error
}

// PipelineService runs create_table, extract, transform and load in order.
// Each run is synchronous and starts from fresh source data.
type PipelineService struct {
	PipelineName string
	SchemaRepo   repository.SchemaRepositoryInterface
	SourceRepo   repository.SourceRepositoryInterface
	ChurnRepo    Loader
	Queue        queue.Queue
	Now          func() time.Time
}

// Run executes one pipeline run. The returned outcome is always non-nil and
// has already been published; the error is the failing stage's error as is.
func (s *PipelineService) Run(ctx context.Context) (*model.RunOutcome, error) {
	now := s.Now
	if now == nil {
		now = time.Now
	}

	outcome := &model.RunOutcome{
		RunID:        uuid.NewString(),
		PipelineName: s.PipelineName,
		StartedAt:    now().UTC(),
	}
	logger := log.With().Str("pipeline", s.PipelineName).Str("run_id", outcome.RunID).Logger()
	logger.Info().Msg("pipeline run started")

	err := s.run(ctx, outcome)

	outcome.FinishedAt = now().UTC()
	if err != nil {
		outcome.Outcome = model.OutcomeFailure
		outcome.Error = err.Error()
		logger.Error().Err(err).Str("task", outcome.FailingTask).Msg("pipeline run failed")
	} else {
		outcome.Outcome = model.OutcomeSuccess
		logger.Info().
			Int("rows_extracted", outcome.RowsExtracted).
			Int("rows_loaded", outcome.RowsLoaded).
			Dur("duration", outcome.FinishedAt.Sub(outcome.StartedAt)).
			Msg("pipeline run succeeded")
	}

	metrics.ObserveRun(outcome)
	s.publish(outcome)
	return outcome, err
}

func (s *PipelineService) run(ctx context.Context, outcome *model.RunOutcome) error {
	outcome.FailingTask = model.TaskCreateTable
	if _, err := s.SchemaRepo.EnsureTable(ctx); err != nil {
		return err
	}

	outcome.FailingTask = model.TaskExtract
	data, err := s.SourceRepo.Extract(ctx)
	if err != nil {
		return err
	}
	outcome.RowsExtracted = data.Len()

	outcome.FailingTask = model.TaskTransform
	transformed := Transform(data)

	outcome.FailingTask = model.TaskLoad
	if err := s.ChurnRepo.Upsert(ctx, transformed); err != nil {
		var partial *appErrors.ErrPartialLoad
		if errors.As(err, &partial) {
			outcome.RowsLoaded = partial.Committed
		}
		return err
	}
	outcome.RowsLoaded = transformed.Len()

	outcome.FailingTask = ""
	return nil
}

func (s *PipelineService) publish(outcome *model.RunOutcome) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.Publish(queue.TopicPipelineRuns, outcome); err != nil {
		log.Warn().Err(err).Str("run_id", outcome.RunID).Msg("failed to publish run outcome")
	}
}
