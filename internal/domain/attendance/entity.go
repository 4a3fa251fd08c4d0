package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRecord is one employee's attendance for one work date. The
// (EmployeeID, Date) pair is unique and the record is immutable once created.
type AttendanceRecord struct {
	ID                   string
	EmployeeID           string
	Date                 time.Time
	EntryTime            *string
	ExitTime             *string
	LunchDurationMinutes int
	WorkedHours          decimal.Decimal
	IsVacation           bool
	PermissionHours      decimal.Decimal
	PermissionReason     *string
	RegisteredBy         *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// DTO
	EmployeeName           *string
	EmployeeIdentification *string
	AreaID                 *string
	AreaName               *string
}

// FoodAllowance carries the per-day meal and transport subsidy counters. One
// row is always created with its attendance record, even when all counters
// are zero, so payroll exports never have to outer-join.
type FoodAllowance struct {
	ID                  string
	AttendanceID        string
	Breakfast           int
	ReinforcedBreakfast int
	Snack               int
	AfternoonSnack      int
	DryMeal             int
	Lunch               int
	TransportAmount     decimal.Decimal
}

// ExtraHours is the derived overtime split for a record. It is only created
// when at least one bucket is positive, and never for vacation days.
type ExtraHours struct {
	ID                 string
	AttendanceID       string
	NightHours         decimal.Decimal
	SupplementaryHours decimal.Decimal
	ExtraordinaryHours decimal.Decimal
}

// RecordBundle groups the rows written together for one employee-date: the
// attendance record, its food allowance, and the optional overtime split.
type RecordBundle struct {
	Record AttendanceRecord
	Food   FoodAllowance
	Extra  *ExtraHours
}
