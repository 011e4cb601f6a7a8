// internal/repository/source_repository.go
package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/unclebandit/churn-etl/internal/errors"
	"github.com/unclebandit/churn-etl/internal/model"
)

const extractQuery = `
    SELECT
        c.customer_id, c.begin_date, c.end_date, c.type, c.paperless_billing, c.payment_method,
        c.monthly_charges, c.total_charges,
        i.internet_service, i.online_security, i.online_backup, i.device_protection,
        i.tech_support, i.streaming_tv, i.streaming_movies,
        p.gender, p.senior_citizen, p.partner, p.dependents,
        ph.multiple_lines
    FROM contracts AS c
    LEFT JOIN internet AS i ON i.customer_id = c.customer_id
    LEFT JOIN personal AS p ON p.customer_id = c.customer_id
    LEFT JOIN phone AS ph ON ph.customer_id = c.customer_id
`

// SourceRepositoryInterface defines methods used by the pipeline service
type SourceRepositoryInterface interface {
	Extract(ctx context.Context) (*model.Dataset, error)
}

// SourceRepository reads from the operational database
type SourceRepository struct {
	DB *sql.DB
}

// Extract runs the contracts-driven join and returns one record per contract.
// It holds a dedicated connection for the duration of the read and releases
// it on every path.
func (r *SourceRepository) Extract(ctx context.Context) (*model.Dataset, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return nil, appErrors.NewConnectivity("source", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, extractQuery)
	if err != nil {
		return nil, appErrors.NewQuery(model.TaskExtract, err)
	}
	defer rows.Close()

	records := []model.CustomerRecord{}
	for rows.Next() {
		rec, err := scanCustomer(rows)
		if err != nil {
			return nil, appErrors.NewQuery(model.TaskExtract, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewQuery(model.TaskExtract, err)
	}

	return model.NewDataset(model.ExtractColumns, records), nil
}

func scanCustomer(rows *sql.Rows) (model.CustomerRecord, error) {
	var (
		c             model.CustomerRecord
		beginDate     sql.NullString
		endDate       sql.NullString
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
	err := rows.Scan(
		&c.CustomerID, &beginDate, &endDate, &contractType, &paperless, &paymentMethod,
		&monthly, &total,
		&internet, &security, &backup, &protection, &support, &tv, &movies,
		&gender, &senior, &partner, &dependents,
		&multipleLines,
	)
	if err != nil {
		return c, err
	}

	c.BeginDate = stringPtr(beginDate)
	c.EndDate = stringPtr(endDate)
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
	return c, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}
