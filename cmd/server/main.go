// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/config"
	"github.com/unclebandit/churn-etl/internal/controller"
	"github.com/unclebandit/churn-etl/internal/db"
	"github.com/unclebandit/churn-etl/internal/handler"
	"github.com/unclebandit/churn-etl/internal/notifier"
	"github.com/unclebandit/churn-etl/internal/queue"
	"github.com/unclebandit/churn-etl/internal/repository"
	"github.com/unclebandit/churn-etl/internal/scheduler"
	"github.com/unclebandit/churn-etl/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := cfg.ValidateDatabases(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DBs
	sourceDB, err := db.Open(ctx, "source", cfg.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to source database")
	}
	defer sourceDB.Close()

	destDB, err := db.Open(ctx, "destination", cfg.Destination)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to destination database")
	}
	defer destDB.Close()

	q, closeQueue := newQueue(cfg)
	defer closeQueue()

	schemaRepo := &repository.SchemaRepository{DB: destDB}
	sourceRepo := &repository.SourceRepository{DB: sourceDB}
	churnRepo := &repository.ChurnRepository{DB: destDB, CommitEvery: cfg.CommitEvery}

	pipeline := &service.PipelineService{
		PipelineName: cfg.PipelineName,
		SchemaRepo:   schemaRepo,
		SourceRepo:   sourceRepo,
		ChurnRepo:    churnRepo,
		Queue:        q,
	}
	sched := scheduler.New(cfg.Schedule, pipeline)

	runController := &controller.RunController{Scheduler: sched}
	churnHandler := &handler.ChurnHandler{
		Repo: churnRepo,
		Databases: map[string]handler.Pinger{
			"source":      sourceDB,
			"destination": destDB,
		},
	}

	r := chi.NewRouter()

	// Pipeline routes
	r.Post("/runs", runController.TriggerRun)
	r.Get("/runs/status", runController.RunStatus)

	// Destination table routes
	r.Get("/customers/{customerID}", churnHandler.GetCustomerHandler)
	r.Get("/stats", churnHandler.StatsHandler)

	r.Get("/health", churnHandler.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("failed to start scheduler")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
	<-sched.Stop().Done()
}

// newQueue publishes run outcomes to RabbitMQ when AMQP_URL is set, where
// cmd/worker picks them up. Otherwise notifications are sent in-process.
func newQueue(cfg *config.Config) (queue.Queue, func()) {
	if cfg.AMQPURL != "" {
		aq, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		return aq, func() { aq.Close() }
	}

	mq := queue.NewInMemoryQueue()
	worker := service.NewWorker(notifier.FromConfig(cfg)).
		WithTemplates(cfg.NotifySuccessTemplate, cfg.NotifyFailureTemplate)
	if err := mq.Subscribe(queue.TopicPipelineRuns, worker.Handle); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe notification worker")
	}
	return mq, mq.Wait
}
