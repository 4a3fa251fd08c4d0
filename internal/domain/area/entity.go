package area

import (
	"time"

	"github.com/shopspring/decimal"
)

// Area is a work zone with its own default shift schedule. Areas are managed
// by an external CRUD surface; this backend only reads them.
type Area struct {
	ID                  string
	Name                string
	DefaultEntryTime    string
	DefaultExitTime     string
	DefaultLunchMinutes int
	DefaultWorkingHours decimal.Decimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
