package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/unclebandit/churn-etl/internal/config"
	"github.com/unclebandit/churn-etl/internal/notifier"
	"github.com/unclebandit/churn-etl/internal/queue"
	"github.com/unclebandit/churn-etl/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()

	if cfg.AMQPURL == "" {
		log.Fatal().Msg("AMQP_URL is required for the notification worker")
	}

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer q.Close()

	worker := newWorker(cfg, notifier.FromConfig(cfg))
	if err := q.Subscribe(queue.TopicPipelineRuns, worker.Handle); err != nil {
		log.Fatal().Err(err).Msg("failed to register consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("topic", queue.TopicPipelineRuns).Msg("worker running, waiting for run outcomes")
	select {
	case <-ctx.Done():
		log.Info().Msg("worker stopping")
	case amqpErr := <-q.NotifyClose():
		log.Error().Str("reason", closeReason(amqpErr)).Msg("RabbitMQ connection closed")
	}
}

func newWorker(cfg *config.Config, sender service.MessageSender) *service.Worker {
	return service.NewWorker(sender).WithTemplates(cfg.NotifySuccessTemplate, cfg.NotifyFailureTemplate)
}

func closeReason(err *amqp.Error) string {
	if err == nil {
		return "closed"
	}
	return err.Reason
}
