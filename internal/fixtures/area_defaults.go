package fixtures

import (
	"github.com/agrofield/attendance-backend-go/internal/domain/attendance"
)

// Canonical defaults applied when an area record carries no schedule of its
// own. Field crews start at dawn; the values match the paper timesheets the
// coordinators used before this system.
const (
	DefaultEntryTime        = "06:30"
	DefaultExitTime         = "16:00"
	DefaultLunchMinutes     = 30
	DefaultStandardDayHours = 8.0
	DefaultPermissionHours  = 0.0
)

// DefaultFoodAllowance returns the meal/transport counters used to prefill
// templates. Lunch defaults to one serving, every other counter to zero:
// present workers get the field lunch unless the coordinator says otherwise.
func DefaultFoodAllowance() attendance.FoodAllowanceInput {
	return attendance.FoodAllowanceInput{
		Lunch: 1,
	}
}
