package area

import "context"

// AreaRepository defines the read-only lookups this backend performs against
// the area catalog.
type AreaRepository interface {
	// GetByIDs returns the areas matching ids; unknown ids are simply absent
	// from the result.
	GetByIDs(ctx context.Context, ids []string) ([]Area, error)

	// ListAll returns every area, used when a verification request does not
	// scope to specific areas.
	ListAll(ctx context.Context) ([]Area, error)
}
