package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance records and their
// food-allowance and overtime sub-records.
type AttendanceRepository interface {
	// CreateBundle inserts the attendance record, its food allowance, and
	// the optional overtime split as one unit. Inside a transaction the
	// inserts run under a savepoint, so a unique-constraint hit on
	// (employee_id, date) surfaces as ErrAlreadyRegistered without
	// poisoning the enclosing transaction.
	CreateBundle(ctx context.Context, bundle RecordBundle) (AttendanceRecord, error)

	// ListEmployeeIDsWithRecord returns the subset of employeeIDs that
	// already have a record for date. One query per batch, not per record.
	ListEmployeeIDsWithRecord(ctx context.Context, date time.Time, employeeIDs []string) ([]string, error)

	// ListByDateAndAreaIDs returns the records for one date scoped to the
	// given areas, with employee and area join fields populated.
	ListByDateAndAreaIDs(ctx context.Context, date time.Time, areaIDs []string) ([]AttendanceRecord, error)

	// List retrieves records with filters and pagination.
	List(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, int64, error)
}

// TxRunner runs fn inside one storage transaction. The commit engine depends
// on this handle instead of a process-wide database object; repositories
// called from fn pick the transaction up from the context.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
