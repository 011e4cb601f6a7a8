package repository

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

func datePtr(nt sql.NullTime) *string {
	if !nt.Valid {
		return nil
	}
	s := nt.Time.Format(dateLayout)
	if nt.Time.Hour() != 0 || nt.Time.Minute() != 0 || nt.Time.Second() != 0 {
		s = nt.Time.Format(time.DateTime)
	}
	return &s
}
