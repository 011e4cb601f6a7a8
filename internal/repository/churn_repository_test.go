package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/churn-etl/internal/errors"
	"github.com/unclebandit/churn-etl/internal/model"
)

var upsertPattern = regexp.QuoteMeta("INSERT INTO users_churn")

func strPtr(s string) *string   { return &s }
func floatP(f float64) *float64 { return &f }

func churnRecord(id string, monthly float64) model.CustomerRecord {
	return model.CustomerRecord{
		CustomerID:     id,
		BeginDate:      strPtr("2020-01-01"),
		Type:           strPtr("One year"),
		MonthlyCharges: floatP(monthly),
		TotalCharges:   floatP(monthly * 12),
		Gender:         strPtr("Male"),
		Target:         0,
	}
}

func loadable(records ...model.CustomerRecord) *model.Dataset {
	return model.NewDataset(model.TargetFields, records)
}

// upsertArgs pins the customer_id argument and accepts anything for the rest.
func upsertArgs(customerID string) []driver.Value {
	args := []driver.Value{customerID}
	for range model.TargetFields[1:] {
		args = append(args, sqlmock.AnyArg())
	}
	return args
}

func TestBuildUpsertQuery(t *testing.T) {
	q := buildUpsertQuery("users_churn", []string{"customer_id", "gender", "target"}, "customer_id")
	assert.Equal(t,
		"INSERT INTO users_churn (customer_id, gender, target) VALUES ($1, $2, $3) "+
			"ON CONFLICT (customer_id) DO UPDATE SET gender = EXCLUDED.gender, target = EXCLUDED.target",
		q)
}

func TestUpsertQueryCoversAllFields(t *testing.T) {
	assert.Contains(t, upsertQuery, "$21")
	assert.Contains(t, upsertQuery, "ON CONFLICT (customer_id)")
	assert.NotContains(t, upsertQuery, "customer_id = EXCLUDED.customer_id")
	assert.Equal(t, len(model.TargetFields)-1, strings.Count(upsertQuery, "= EXCLUDED."))
}

func TestUpsertSingleChunk(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C1")...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C2")...).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := &ChurnRepository{DB: db}
	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 20), churnRecord("C2", 30)))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPassesNullsAndValuesInFieldOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := churnRecord("C2", 99)
	rec.EndDate = strPtr("2022-01-01")
	rec.Target = 1

	args := make([]driver.Value, len(model.TargetFields))
	for i, f := range model.TargetFields {
		switch f {
		case "customer_id":
			args[i] = "C2"
		case "begin_date":
			args[i] = "2020-01-01"
		case "end_date":
			args[i] = "2022-01-01"
		case "type":
			args[i] = "One year"
		case "monthly_charges":
			args[i] = 99.0
		case "total_charges":
			args[i] = 99.0 * 12
		case "gender":
			args[i] = "Male"
		case "target":
			args[i] = int64(1)
		default:
			args[i] = nil
		}
	}

	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(args...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := &ChurnRepository{DB: db}
	require.NoError(t, repo.Upsert(context.Background(), loadable(rec)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCommitsInChunks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C1")...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C2")...).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C3")...).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	repo := &ChurnRepository{DB: db, CommitEvery: 2}
	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 1), churnRecord("C2", 2), churnRecord("C3", 3)))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPartialLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C1")...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C2")...).WillReturnError(errors.New("value too long for type character varying(60)"))
	mock.ExpectRollback()

	repo := &ChurnRepository{DB: db, CommitEvery: 1}
	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 1), churnRecord("C2", 2)))

	var pe *appErrors.ErrPartialLoad
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Committed)
	assert.Equal(t, 2, pe.Total)
	assert.Contains(t, err.Error(), "customer C2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFailureInFirstChunkReportsZeroCommitted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C1")...).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(upsertPattern).WithArgs(upsertArgs("C2")...).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	repo := &ChurnRepository{DB: db}
	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 1), churnRecord("C2", 2)))

	var pe *appErrors.ErrPartialLoad
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Committed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBeginFailureIsConnectivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	repo := &ChurnRepository{DB: db}
	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 1)))

	var ce *appErrors.ErrConnectivity
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "destination", ce.Store)
	var pe *appErrors.ErrPartialLoad
	assert.False(t, errors.As(err, &pe))
}

func TestUpsertColumnOrderMismatchWritesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	swapped := append([]string{}, model.TargetFields...)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	tests := []struct {
		name    string
		columns []string
	}{
		{"swapped", swapped},
		{"missing target", model.ExtractColumns},
		{"empty", nil},
	}

	repo := &ChurnRepository{DB: db}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := model.NewDataset(tt.columns, []model.CustomerRecord{churnRecord("C1", 1)})
			err := repo.Upsert(context.Background(), data)

			var se *appErrors.ErrSchemaMismatch
			require.ErrorAs(t, err, &se)
			assert.Equal(t, model.TargetFields, se.Expected)
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRejectsInvalidBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &ChurnRepository{DB: db}

	err = repo.Upsert(context.Background(), loadable(churnRecord("C1", 1), churnRecord("C1", 2)))
	var ie *appErrors.ErrInvalidRecord
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Index)

	err = repo.Upsert(context.Background(), loadable(churnRecord(" ", 1)))
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 0, ie.Index)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEmptyDataset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &ChurnRepository{DB: db}
	require.NoError(t, repo.Upsert(context.Background(), loadable()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCustomerID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	begin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	row := []driver.Value{
		"C2", begin, end, "One year", "Yes", "Mailed check",
		99.0, 1188.0,
		"Fiber optic", "No", "No", "No", "No", "Yes", "Yes",
		"Male", int64(1), "No", "No",
		"Yes", int64(1),
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users_churn WHERE customer_id = $1")).
		WithArgs("C2").
		WillReturnRows(sqlmock.NewRows(model.TargetFields).AddRow(row...))

	repo := &ChurnRepository{DB: db}
	rec, err := repo.GetByCustomerID(context.Background(), "C2")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "C2", rec.CustomerID)
	assert.Equal(t, "2022-01-01", *rec.EndDate)
	assert.Equal(t, 1, rec.Target)
	assert.Equal(t, 1, *rec.SeniorCitizen)
	assert.InDelta(t, 99.0, *rec.MonthlyCharges, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByCustomerIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users_churn")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(model.TargetFields))

	repo := &ChurnRepository{DB: db}
	rec, err := repo.GetByCustomerID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "churned"}).AddRow(int64(10), int64(3)))

	repo := &ChurnRepository{DB: db}
	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &ChurnStats{Total: 10, Churned: 3, Active: 7}, stats)
}

func TestUpsertChunkUnknownColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &ChurnRepository{DB: db}
	columns := []string{"customer_id", "churn_score"}
	err = repo.upsertChunk(context.Background(), loadable(churnRecord("C1", 20)), columns, 0, 1)

	var se *appErrors.ErrSchemaMismatch
	require.ErrorAs(t, err, &se)
	assert.Equal(t, columns, se.Got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
