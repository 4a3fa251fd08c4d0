package attendance

import (
	"fmt"

	"github.com/agrofield/attendance-backend-go/internal/pkg/validator"
)

// MaxBulkRecords caps one bulk submission. The cap bounds worst-case
// transaction duration and lock contention against the employee and area
// tables.
const MaxBulkRecords = 1000

// ========================================
// BULK SUBMISSION DTOs
// ========================================

type BulkCreateRequest struct {
	Date    string            `json:"date"`
	Records []BulkRecordInput `json:"records"`
}

// Validate checks the batch shape. Per-record rules live on BulkRecordInput;
// their failures become per-record rejections, not a rejected request.
func (r *BulkCreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(r.Records) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: "at least one record is required",
		})
	}
	if len(r.Records) > MaxBulkRecords {
		errs = append(errs, validator.ValidationError{
			Field:   "records",
			Message: fmt.Sprintf("batch must not exceed %d records", MaxBulkRecords),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BulkRecordInput struct {
	EmployeeID           string              `json:"employee_id"`
	EntryTime            *string             `json:"entry_time,omitempty"`
	ExitTime             *string             `json:"exit_time,omitempty"`
	LunchDurationMinutes *int                `json:"lunch_duration_minutes,omitempty"`
	IsVacation           bool                `json:"is_vacation"`
	PermissionHours      *float64            `json:"permission_hours,omitempty"`
	PermissionReason     *string             `json:"permission_reason,omitempty"`
	FoodAllowance        *FoodAllowanceInput `json:"food_allowance,omitempty"`
}

// Validate applies the structural business rules to one submitted record.
// Exit earlier than entry is allowed (overnight shift); only a zero-length
// shift is rejected.
func (r *BulkRecordInput) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if r.EntryTime != nil && !validator.IsValidClockTime(*r.EntryTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "entry_time",
			Message: "entry_time must be in HH:mm format",
		})
	}
	if r.ExitTime != nil && !validator.IsValidClockTime(*r.ExitTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "exit_time",
			Message: "exit_time must be in HH:mm format",
		})
	}
	if r.EntryTime != nil && r.ExitTime != nil && !r.IsVacation &&
		validator.IsValidClockTime(*r.EntryTime) && validator.IsValidClockTime(*r.ExitTime) &&
		*r.EntryTime == *r.ExitTime {
		errs = append(errs, validator.ValidationError{
			Field:   "exit_time",
			Message: "exit_time must differ from entry_time",
		})
	}

	if r.LunchDurationMinutes != nil && (*r.LunchDurationMinutes < 0 || *r.LunchDurationMinutes > 180) {
		errs = append(errs, validator.ValidationError{
			Field:   "lunch_duration_minutes",
			Message: "lunch_duration_minutes must be between 0 and 180",
		})
	}

	permissionHours := 0.0
	if r.PermissionHours != nil {
		permissionHours = *r.PermissionHours
	}
	if permissionHours < 0 || permissionHours > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "permission_hours",
			Message: "permission_hours must be between 0 and 12",
		})
	}
	if permissionHours > 0 && (r.PermissionReason == nil || validator.IsEmpty(*r.PermissionReason)) {
		errs = append(errs, validator.ValidationError{
			Field:   "permission_reason",
			Message: "permission_reason is required when permission_hours is greater than 0",
		})
	}

	if r.FoodAllowance != nil {
		errs = append(errs, r.FoodAllowance.validate()...)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type FoodAllowanceInput struct {
	Breakfast           int     `json:"breakfast"`
	ReinforcedBreakfast int     `json:"reinforced_breakfast"`
	Snack               int     `json:"snack"`
	AfternoonSnack      int     `json:"afternoon_snack"`
	DryMeal             int     `json:"dry_meal"`
	Lunch               int     `json:"lunch"`
	TransportAmount     float64 `json:"transport_amount"`
}

func (f *FoodAllowanceInput) validate() validator.ValidationErrors {
	var errs validator.ValidationErrors

	mealCounts := []struct {
		field string
		value int
	}{
		{"food_allowance.breakfast", f.Breakfast},
		{"food_allowance.reinforced_breakfast", f.ReinforcedBreakfast},
		{"food_allowance.snack", f.Snack},
		{"food_allowance.afternoon_snack", f.AfternoonSnack},
		{"food_allowance.dry_meal", f.DryMeal},
		{"food_allowance.lunch", f.Lunch},
	}
	for _, mc := range mealCounts {
		if mc.value < 0 || mc.value > 5 {
			errs = append(errs, validator.ValidationError{
				Field:   mc.field,
				Message: "meal count must be between 0 and 5",
			})
		}
	}

	if f.TransportAmount < 0 || f.TransportAmount > 50 {
		errs = append(errs, validator.ValidationError{
			Field:   "food_allowance.transport_amount",
			Message: "transport_amount must be between 0 and 50",
		})
	}

	return errs
}

type CommittedRecord struct {
	EmployeeID     string  `json:"employee_id"`
	Identification string  `json:"identification"`
	FullName       string  `json:"full_name"`
	AreaName       string  `json:"area_name"`
	WorkedHours    float64 `json:"worked_hours"`
	Status         string  `json:"status"`
}

type RejectedRecord struct {
	Index      int    `json:"index"`
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type BulkCreateResult struct {
	BatchID       string            `json:"batch_id"`
	Date          string            `json:"date"`
	Processed     int               `json:"processed"`
	Errors        int               `json:"errors"`
	SuccessRate   float64           `json:"success_rate"`
	ElapsedMS     int64             `json:"elapsed_ms"`
	Committed     []CommittedRecord `json:"committed_records"`
	Rejected      []RejectedRecord  `json:"rejected_records"`
	RejectedTotal int               `json:"rejected_total"`
}

// ========================================
// TEMPLATE / VERIFICATION DTOs
// ========================================

type TemplateRequest struct {
	Date    string   `json:"date"`
	AreaIDs []string `json:"area_ids"`
}

func (r *TemplateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(r.AreaIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "area_ids",
			Message: "at least one area_id is required",
		})
	}
	for _, id := range r.AreaIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "area_ids",
				Message: "area_ids must be valid UUIDs",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TemplateEmployee struct {
	EmployeeID           string             `json:"employee_id"`
	Identification       string             `json:"identification"`
	FullName             string             `json:"full_name"`
	EntryTime            string             `json:"entry_time"`
	ExitTime             string             `json:"exit_time"`
	LunchDurationMinutes int                `json:"lunch_duration_minutes"`
	PermissionHours      float64            `json:"permission_hours"`
	FoodAllowance        FoodAllowanceInput `json:"food_allowance"`
	HasExistingRecord    bool               `json:"has_existing_record"`
}

type TemplateArea struct {
	AreaID    string             `json:"area_id"`
	AreaName  string             `json:"area_name"`
	Employees []TemplateEmployee `json:"employees"`
}

type TemplateResponse struct {
	Date  string         `json:"date"`
	Areas []TemplateArea `json:"areas"`
}

type VerifyRequest struct {
	Date    string   `json:"date"`
	AreaIDs []string `json:"area_ids,omitempty"`
}

func (r *VerifyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	// AreaIDs are optional; empty means every area.
	for _, id := range r.AreaIDs {
		if !validator.IsValidUUID(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "area_ids",
				Message: "area_ids must be valid UUIDs",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type VerifyRecord struct {
	EmployeeID     string  `json:"employee_id"`
	Identification string  `json:"identification"`
	FullName       string  `json:"full_name"`
	WorkedHours    float64 `json:"worked_hours"`
	IsVacation     bool    `json:"is_vacation"`
}

type VerifyArea struct {
	AreaID          string         `json:"area_id"`
	AreaName        string         `json:"area_name"`
	ActiveEmployees int            `json:"active_employees"`
	Registered      int            `json:"registered"`
	CompletionRate  float64        `json:"completion_rate"`
	Records         []VerifyRecord `json:"records"`
}

type VerifyResponse struct {
	Date                 string       `json:"date"`
	TotalActiveEmployees int          `json:"total_active_employees"`
	TotalRegistered      int          `json:"total_registered"`
	CompletionRate       float64      `json:"completion_rate"`
	Areas                []VerifyArea `json:"areas"`
}

// ========================================
// LIST DTOs
// ========================================

type AttendanceFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	AreaID     *string `json:"area_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, employee_name, worked_hours
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "employee_name", "worked_hours"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, employee_name, worked_hours",
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(f.SortOrder, validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceResponse struct {
	ID                   string  `json:"id"`
	EmployeeID           string  `json:"employee_id"`
	EmployeeName         string  `json:"employee_name"`
	Identification       *string `json:"identification,omitempty"`
	AreaName             *string `json:"area_name,omitempty"`
	Date                 string  `json:"date"`
	EntryTime            *string `json:"entry_time,omitempty"`
	ExitTime             *string `json:"exit_time,omitempty"`
	LunchDurationMinutes int     `json:"lunch_duration_minutes"`
	WorkedHours          float64 `json:"worked_hours"`
	IsVacation           bool    `json:"is_vacation"`
	PermissionHours      float64 `json:"permission_hours"`
	PermissionReason     *string `json:"permission_reason,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

// ListAttendanceResponse carries one page of records; the handler maps the
// pagination fields into the envelope meta block.
type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}
