package employee

import "context"

// EmployeeRepository defines the read-only lookups against the employee
// roster. Employee CRUD lives in an external system.
type EmployeeRepository interface {
	// ListActiveByIDs bulk-resolves ids to active employees. Ids that are
	// unknown or inactive are absent from the result; callers detect them by
	// diffing against the requested set.
	ListActiveByIDs(ctx context.Context, ids []string) ([]Employee, error)

	// ListActiveByAreaIDs returns all active employees belonging to the
	// given areas, ordered by area then full name.
	ListActiveByAreaIDs(ctx context.Context, areaIDs []string) ([]Employee, error)
}
