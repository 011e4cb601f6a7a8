// cmd/seeder/main.go
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/churn-etl/internal/config"
	"github.com/unclebandit/churn-etl/internal/db"
)

var seedFiles = []string{
	"seed/source_schema.sql",
	"seed/contracts.sql",
	"seed/internet.sql",
	"seed/personal.sql",
	"seed/phone.sql",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()

	ctx := context.Background()
	source, err := db.Open(ctx, "source", cfg.Source)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to source database")
	}
	defer source.Close()

	dir := os.Getenv("SEED_DIR")
	for _, file := range seedFiles {
		path := filepath.Join(dir, file)
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to read seed file")
		}

		if _, err := source.ExecContext(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to execute seed file")
		}
		log.Info().Str("file", path).Msg("seeded")
	}

	log.Info().Msg("source database seeding completed successfully")
}
