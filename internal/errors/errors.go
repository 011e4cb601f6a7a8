// internal/errors/errors.go
package appErrors

import (
	"fmt"
	"strings"
)

// ErrConnectivity means the source or destination store could not be reached.
type ErrConnectivity struct {
	Store string
	Err   error
}

func (e *ErrConnectivity) Error() string {
	return fmt.Sprintf("cannot reach %s database: %v", e.Store, e.Err)
}

func (e *ErrConnectivity) Unwrap() error { return e.Err }

func NewConnectivity(store string, err error) error {
	return &ErrConnectivity{Store: store, Err: err}
}

// ErrQuery wraps a failing extraction query. No partial data accompanies it.
type ErrQuery struct {
	Query string
	Err   error
}

func (e *ErrQuery) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Query, e.Err)
}

func (e *ErrQuery) Unwrap() error { return e.Err }

func NewQuery(query string, err error) error {
	return &ErrQuery{Query: query, Err: err}
}

// ErrSchemaMismatch is returned before any write when a dataset's columns do
// not line up with the destination field list.
type ErrSchemaMismatch struct {
	Expected []string
	Got      []string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("dataset columns [%s] do not match target fields [%s]",
		strings.Join(e.Got, ", "), strings.Join(e.Expected, ", "))
}

func NewSchemaMismatch(expected, got []string) error {
	return &ErrSchemaMismatch{Expected: expected, Got: got}
}

// ErrPartialLoad reports an upsert interrupted mid-batch. Committed rows stay
// in the destination table.
type ErrPartialLoad struct {
	Committed int
	Total     int
	Err       error
}

func (e *ErrPartialLoad) Error() string {
	return fmt.Sprintf("load interrupted after %d of %d rows: %v", e.Committed, e.Total, e.Err)
}

func (e *ErrPartialLoad) Unwrap() error { return e.Err }

func NewPartialLoad(committed, total int, err error) error {
	return &ErrPartialLoad{Committed: committed, Total: total, Err: err}
}

// ErrInvalidRecord flags a batch with an empty or repeated customer id.
type ErrInvalidRecord struct {
	Index      int
	CustomerID string
	Reason     string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("record %d (customer_id=%q): %s", e.Index, e.CustomerID, e.Reason)
}

func NewInvalidRecord(index int, customerID, reason string) error {
	return &ErrInvalidRecord{Index: index, CustomerID: customerID, Reason: reason}
}
