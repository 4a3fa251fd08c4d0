package attendance

import (
	"context"
)

// AttendanceService defines the bulk attendance operations.
type AttendanceService interface {
	// BulkCreate validates and commits one date's batch of attendance
	// entries. Per-record problems become rejections in the result; only a
	// storage-level fault fails the call.
	BulkCreate(ctx context.Context, req BulkCreateRequest) (BulkCreateResult, error)

	// BuildTemplate returns the per-area employee listing with area
	// defaults prefilled, flagging employees already registered for the
	// date.
	BuildTemplate(ctx context.Context, req TemplateRequest) (TemplateResponse, error)

	// Verify reports per-area registration completion for a date.
	Verify(ctx context.Context, req VerifyRequest) (VerifyResponse, error)

	// ListAttendance retrieves committed records with filters (read-only;
	// records are never updated or deleted).
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
}
