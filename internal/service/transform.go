// internal/service/transform.go
package service

import (
	"github.com/unclebandit/churn-etl/internal/model"
)

// Transform labels every record and returns a new dataset with the target
// column appended. The input dataset is left as it was.
//
// target is 1 unless end_date is literally "No". A null end_date is not "No",
// so it is labelled as churned.
func Transform(data *model.Dataset) *model.Dataset {
	records := data.Records()
	for i := range records {
		rec := &records[i]
		if rec.EndDate != nil && *rec.EndDate == model.EndDateSentinel {
			rec.Target = 0
			rec.EndDate = nil
			continue
		}
		rec.Target = 1
	}

	columns := data.Columns()
	if !data.HasColumn(model.TargetColumn) {
		columns = append(columns, model.TargetColumn)
	}
	return model.NewDataset(columns, records)
}
