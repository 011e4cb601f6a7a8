// internal/model/customer.go
package model

// EndDateSentinel is the raw end_date value of a contract that is still active.
const EndDateSentinel = "No"

// CustomerRecord is one flattened row of the churn dataset. Nullable source
// columns are pointers so a missing sub-relation row stays distinguishable
// from an empty string.
type CustomerRecord struct {
	CustomerID       string   `db:"customer_id" json:"customer_id"`
	BeginDate        *string  `db:"begin_date" json:"begin_date"`
	EndDate          *string  `db:"end_date" json:"end_date"`
	Type             *string  `db:"type" json:"type"`
	PaperlessBilling *string  `db:"paperless_billing" json:"paperless_billing"`
	PaymentMethod    *string  `db:"payment_method" json:"payment_method"`
	MonthlyCharges   *float64 `db:"monthly_charges" json:"monthly_charges"`
	TotalCharges     *float64 `db:"total_charges" json:"total_charges"`
	InternetService  *string  `db:"internet_service" json:"internet_service"`
	OnlineSecurity   *string  `db:"online_security" json:"online_security"`
	OnlineBackup     *string  `db:"online_backup" json:"online_backup"`
	DeviceProtection *string  `db:"device_protection" json:"device_protection"`
	TechSupport      *string  `db:"tech_support" json:"tech_support"`
	StreamingTV      *string  `db:"streaming_tv" json:"streaming_tv"`
	StreamingMovies  *string  `db:"streaming_movies" json:"streaming_movies"`
	Gender           *string  `db:"gender" json:"gender"`
	SeniorCitizen    *int     `db:"senior_citizen" json:"senior_citizen"`
	Partner          *string  `db:"partner" json:"partner"`
	Dependents       *string  `db:"dependents" json:"dependents"`
	MultipleLines    *string  `db:"multiple_lines" json:"multiple_lines"`
	Target           int      `db:"target" json:"target"`
}

// Value returns the field stored under the given column name.
func (c CustomerRecord) Value(column string) (any, bool) {
	switch column {
	case "customer_id":
		return c.CustomerID, true
	case "begin_date":
		return nullable(c.BeginDate), true
	case "end_date":
		return nullable(c.EndDate), true
	case "type":
		return nullable(c.Type), true
	case "paperless_billing":
		return nullable(c.PaperlessBilling), true
	case "payment_method":
		return nullable(c.PaymentMethod), true
	case "monthly_charges":
		return nullable(c.MonthlyCharges), true
	case "total_charges":
		return nullable(c.TotalCharges), true
	case "internet_service":
		return nullable(c.InternetService), true
	case "online_security":
		return nullable(c.OnlineSecurity), true
	case "online_backup":
		return nullable(c.OnlineBackup), true
	case "device_protection":
		return nullable(c.DeviceProtection), true
	case "tech_support":
		return nullable(c.TechSupport), true
	case "streaming_tv":
		return nullable(c.StreamingTV), true
	case "streaming_movies":
		return nullable(c.StreamingMovies), true
	case "gender":
		return nullable(c.Gender), true
	case "senior_citizen":
		return nullable(c.SeniorCitizen), true
	case "partner":
		return nullable(c.Partner), true
	case "dependents":
		return nullable(c.Dependents), true
	case "multiple_lines":
		return nullable(c.MultipleLines), true
	case "target":
		return c.Target, true
	}
	return nil, false
}

// Values returns the record's fields in the order of columns.
func (c CustomerRecord) Values(columns []string) ([]any, bool) {
	out := make([]any, len(columns))
	for i, col := range columns {
		v, ok := c.Value(col)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Clone returns a copy of c that shares no pointers with it.
func (c CustomerRecord) Clone() CustomerRecord {
	out := c
	out.BeginDate = clonePtr(c.BeginDate)
	out.EndDate = clonePtr(c.EndDate)
	out.Type = clonePtr(c.Type)
	out.PaperlessBilling = clonePtr(c.PaperlessBilling)
	out.PaymentMethod = clonePtr(c.PaymentMethod)
	out.MonthlyCharges = clonePtr(c.MonthlyCharges)
	out.TotalCharges = clonePtr(c.TotalCharges)
	out.InternetService = clonePtr(c.InternetService)
	out.OnlineSecurity = clonePtr(c.OnlineSecurity)
	out.OnlineBackup = clonePtr(c.OnlineBackup)
	out.DeviceProtection = clonePtr(c.DeviceProtection)
	out.TechSupport = clonePtr(c.TechSupport)
	out.StreamingTV = clonePtr(c.StreamingTV)
	out.StreamingMovies = clonePtr(c.StreamingMovies)
	out.Gender = clonePtr(c.Gender)
	out.SeniorCitizen = clonePtr(c.SeniorCitizen)
	out.Partner = clonePtr(c.Partner)
	out.Dependents = clonePtr(c.Dependents)
	out.MultipleLines = clonePtr(c.MultipleLines)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// nullable unwraps p so that a nil pointer reaches the driver as NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
