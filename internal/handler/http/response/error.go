package response

import (
	"errors"
	"net/http"

	"github.com/agrofield/attendance-backend-go/internal/domain/area"
	"github.com/agrofield/attendance-backend-go/internal/domain/attendance"
	"github.com/agrofield/attendance-backend-go/internal/domain/employee"
	"github.com/agrofield/attendance-backend-go/internal/domain/user"
	"github.com/agrofield/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrCoordinatorAccessRequired):
		Forbidden(w, "Coordinator access required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyRegistered):
		Conflict(w, "Attendance already registered for this date")
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrNoAreasFound):
		NotFound(w, "No areas found for the given ids")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found or inactive")

	// Area domain errors
	case errors.Is(err, area.ErrAreaNotFound):
		NotFound(w, "Area not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
