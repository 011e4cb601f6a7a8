// internal/repository/churn_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/churn-etl/internal/errors"
	"github.com/unclebandit/churn-etl/internal/model"
)

// DefaultCommitEvery matches the batch size rows are committed in when the
// caller does not set one.
const DefaultCommitEvery = 1000

// ChurnStats summarises the destination table
type ChurnStats struct {
	Total   int `json:"total"`
	Churned int `json:"churned"`
	Active  int `json:"active"`
}

// ChurnRepositoryInterface defines methods used by service and handlers
type ChurnRepositoryInterface interface {
	Upsert(ctx context.Context, data *model.Dataset) error
	GetByCustomerID(ctx context.Context, customerID string) (*model.CustomerRecord, error)
	Stats(ctx context.Context) (*ChurnStats, error)
}

// ChurnRepository writes the analytics table
type ChurnRepository struct {
	DB          *sql.DB
	CommitEvery int
}

var upsertQuery = buildUpsertQuery(ChurnTable, model.TargetFields, "customer_id")

// buildUpsertQuery renders an insert that replaces every non-key field of an
// existing row on key conflict.
func buildUpsertQuery(table string, fields []string, key string) string {
	placeholders := make([]string, len(fields))
	updates := make([]string, 0, len(fields)-1)
	for i, f := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if f != key {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", f, f))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(fields, ", "), strings.Join(placeholders, ", "), key, strings.Join(updates, ", "),
	)
}

// Upsert inserts new customers and fully replaces existing ones. Rows are
// committed in chunks of CommitEvery; a failure after the first commit is
// reported as a partial load and nothing is rolled back.
func (r *ChurnRepository) Upsert(ctx context.Context, data *model.Dataset) error {
	columns := data.Columns()
	if !slices.Equal(columns, model.TargetFields) {
		return appErrors.NewSchemaMismatch(slices.Clone(model.TargetFields), columns)
	}
	if err := validateBatch(data); err != nil {
		return err
	}

	commitEvery := r.CommitEvery
	if commitEvery <= 0 {
		commitEvery = DefaultCommitEvery
	}

	total := data.Len()
	committed := 0
	for start := 0; start < total; start += commitEvery {
		end := min(start+commitEvery, total)
		if err := r.upsertChunk(ctx, data, columns, start, end); err != nil {
			if committed == 0 && isConnectivity(err) {
				return err
			}
			return appErrors.NewPartialLoad(committed, total, err)
		}
		committed = end
		log.Debug().Int("committed", committed).Int("total", total).Msg("upsert chunk committed")
	}
	return nil
}

func (r *ChurnRepository) upsertChunk(ctx context.Context, data *model.Dataset, columns []string, start, end int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return appErrors.NewConnectivity("destination", err)
	}
	defer tx.Rollback()

	for i := start; i < end; i++ {
		rec := data.At(i)
		args, ok := rec.Values(columns)
		if !ok {
			return appErrors.NewSchemaMismatch(model.TargetFields, columns)
		}
		if _, err := tx.ExecContext(ctx, upsertQuery, args...); err != nil {
			return fmt.Errorf("upsert customer %s: %w", rec.CustomerID, err)
		}
	}
	return tx.Commit()
}

func validateBatch(data *model.Dataset) error {
	seen := make(map[string]struct{}, data.Len())
	for i := 0; i < data.Len(); i++ {
		id := data.At(i).CustomerID
		if strings.TrimSpace(id) == "" {
			return appErrors.NewInvalidRecord(i, id, "empty customer_id")
		}
		if _, dup := seen[id]; dup {
			return appErrors.NewInvalidRecord(i, id, "duplicate customer_id in batch")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func isConnectivity(err error) bool {
	var ce *appErrors.ErrConnectivity
	return errors.As(err, &ce)
}

// GetByCustomerID fetches one churn row; nil when the customer is unknown
func (r *ChurnRepository) GetByCustomerID(ctx context.Context, customerID string) (*model.CustomerRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE customer_id = $1", selectFields(), ChurnTable)

	var (
		c             model.CustomerRecord
		beginDate     sql.NullTime
		endDate       sql.NullTime
		contractType  sql.NullString
		paperless     sql.NullString
		paymentMethod sql.NullString
		monthly       sql.NullFloat64
		total         sql.NullFloat64
		internet      sql.NullString
		security      sql.NullString
		backup        sql.NullString
		protection    sql.NullString
		support       sql.NullString
		tv            sql.NullString
		movies        sql.NullString
		gender        sql.NullString
		senior        sql.NullInt64
		partner       sql.NullString
		dependents    sql.NullString
		multipleLines sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, customerID).Scan(
		&c.CustomerID, &beginDate, &endDate, &contractType, &paperless, &paymentMethod,
		&monthly, &total,
		&internet, &security, &backup, &protection, &support, &tv, &movies,
		&gender, &senior, &partner, &dependents,
		&multipleLines, &c.Target,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}

	c.BeginDate = datePtr(beginDate)
	c.EndDate = datePtr(endDate)
	c.Type = stringPtr(contractType)
	c.PaperlessBilling = stringPtr(paperless)
	c.PaymentMethod = stringPtr(paymentMethod)
	c.MonthlyCharges = floatPtr(monthly)
	c.TotalCharges = floatPtr(total)
	c.InternetService = stringPtr(internet)
	c.OnlineSecurity = stringPtr(security)
	c.OnlineBackup = stringPtr(backup)
	c.DeviceProtection = stringPtr(protection)
	c.TechSupport = stringPtr(support)
	c.StreamingTV = stringPtr(tv)
	c.StreamingMovies = stringPtr(movies)
	c.Gender = stringPtr(gender)
	if senior.Valid {
		v := int(senior.Int64)
		c.SeniorCitizen = &v
	}
	c.Partner = stringPtr(partner)
	c.Dependents = stringPtr(dependents)
	c.MultipleLines = stringPtr(multipleLines)
	return &c, nil
}

// Stats counts loaded customers by label
func (r *ChurnRepository) Stats(ctx context.Context) (*ChurnStats, error) {
	query := fmt.Sprintf(`
        SELECT COUNT(*), COALESCE(SUM(CASE WHEN target = 1 THEN 1 ELSE 0 END), 0)
        FROM %s
    `, ChurnTable)

	var s ChurnStats
	if err := r.DB.QueryRowContext(ctx, query).Scan(&s.Total, &s.Churned); err != nil {
		return nil, err
	}
	s.Active = s.Total - s.Churned
	return &s, nil
}

func selectFields() string {
	return strings.Join(model.TargetFields, ", ")
}
