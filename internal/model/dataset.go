// internal/model/dataset.go
package model

import "slices"

// ExtractColumns is the projection produced by the source join, in order.
var ExtractColumns = []string{
	"customer_id", "begin_date", "end_date", "type", "paperless_billing", "payment_method",
	"monthly_charges", "total_charges",
	"internet_service", "online_security", "online_backup", "device_protection",
	"tech_support", "streaming_tv", "streaming_movies",
	"gender", "senior_citizen", "partner", "dependents",
	"multiple_lines",
}

// TargetColumn is the label appended by the transform step.
const TargetColumn = "target"

// TargetFields is the field list written to users_churn, in order.
var TargetFields = append(slices.Clone(ExtractColumns), TargetColumn)

// Dataset is an immutable sequence of customer records with the column
// order they are meant to be written in.
type Dataset struct {
	columns []string
	records []CustomerRecord
}

// NewDataset deep-copies columns and records into a new Dataset.
func NewDataset(columns []string, records []CustomerRecord) *Dataset {
	return &Dataset{
		columns: slices.Clone(columns),
		records: cloneRecords(records),
	}
}

func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

func (d *Dataset) Records() []CustomerRecord { return cloneRecords(d.records) }

func (d *Dataset) Len() int { return len(d.records) }

// At returns a copy of the i-th record.
func (d *Dataset) At(i int) CustomerRecord { return d.records[i].Clone() }

func (d *Dataset) HasColumn(name string) bool { return slices.Contains(d.columns, name) }

func cloneRecords(records []CustomerRecord) []CustomerRecord {
	if records == nil {
		return nil
	}
	out := make([]CustomerRecord, len(records))
	for i, rec := range records {
		out[i] = rec.Clone()
	}
	return out
}
