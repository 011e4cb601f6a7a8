// internal/repository/schema_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ChurnTable is the destination table name.
const ChurnTable = "users_churn"

const createChurnTable = `
	CREATE TABLE IF NOT EXISTS users_churn (
		id                SERIAL PRIMARY KEY,
		customer_id       VARCHAR(60),
		begin_date        TIMESTAMP,
		end_date          TIMESTAMP,
		type              VARCHAR(60),
		paperless_billing VARCHAR(60),
		payment_method    VARCHAR(60),
		monthly_charges   DOUBLE PRECISION,
		total_charges     DOUBLE PRECISION,
		internet_service  VARCHAR(60),
		online_security   VARCHAR(60),
		online_backup     VARCHAR(60),
		device_protection VARCHAR(60),
		tech_support      VARCHAR(60),
		streaming_tv      VARCHAR(60),
		streaming_movies  VARCHAR(60),
		gender            VARCHAR(60),
		senior_citizen    INTEGER,
		partner           VARCHAR(60),
		dependents        VARCHAR(60),
		multiple_lines    VARCHAR(60),
		target            INTEGER,
		CONSTRAINT unique_customer_id_constraint UNIQUE (customer_id)
	)
`

// SchemaRepositoryInterface is used by the pipeline service
type SchemaRepositoryInterface interface {
	EnsureTable(ctx context.Context) (created bool, err error)
}

// SchemaRepository bootstraps the destination table
type SchemaRepository struct {
	DB *sql.DB
}

// TableExists reports whether the churn table is visible in the current schema
func (r *SchemaRepository) TableExists(ctx context.Context) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = current_schema() AND table_name = $1
        )
    `
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, ChurnTable).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", ChurnTable, err)
	}
	return exists, nil
}

// EnsureTable creates users_churn when it is missing. An existing table is
// left untouched, even if its columns differ.
func (r *SchemaRepository) EnsureTable(ctx context.Context) (bool, error) {
	exists, err := r.TableExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debug().Str("table", ChurnTable).Msg("destination table already exists")
		return false, nil
	}

	if _, err := r.DB.ExecContext(ctx, createChurnTable); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", ChurnTable, err)
	}
	log.Info().Str("table", ChurnTable).Msg("destination table created")
	return true, nil
}
