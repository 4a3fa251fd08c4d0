package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrofield/attendance-backend-go/internal/domain/attendance"
	"github.com/agrofield/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

type attendanceRepository struct {
	db *database.DB
}

// CreateBundle implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateBundle(ctx context.Context, bundle attendance.RecordBundle) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	// Inside a batch transaction the three inserts run under a savepoint so
	// a duplicate-record conflict rolls back just this bundle and the outer
	// transaction stays usable for the rest of the batch.
	if tx, ok := q.(pgx.Tx); ok {
		savepoint, err := tx.Begin(ctx)
		if err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to open savepoint: %w", err)
		}

		record, err := a.insertBundle(ctx, savepoint, bundle)
		if err != nil {
			if rbErr := savepoint.Rollback(ctx); rbErr != nil {
				return attendance.AttendanceRecord{}, fmt.Errorf("savepoint rollback error: %v (original error: %w)", rbErr, err)
			}
			return attendance.AttendanceRecord{}, err
		}
		if err := savepoint.Commit(ctx); err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to release savepoint: %w", err)
		}
		return record, nil
	}

	return a.insertBundle(ctx, q, bundle)
}

func (a *attendanceRepository) insertBundle(ctx context.Context, q database.Querier, bundle attendance.RecordBundle) (attendance.AttendanceRecord, error) {
	record := bundle.Record

	recordQuery := `
		INSERT INTO attendance_records (
			employee_id, date, entry_time, exit_time, lunch_duration_minutes,
			worked_hours, is_vacation, permission_hours, permission_reason,
			registered_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, recordQuery,
		record.EmployeeID,
		record.Date,
		record.EntryTime,
		record.ExitTime,
		record.LunchDurationMinutes,
		record.WorkedHours,
		record.IsVacation,
		record.PermissionHours,
		record.PermissionReason,
		record.RegisteredBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyRegistered
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	food := bundle.Food
	foodQuery := `
		INSERT INTO food_allowances (
			attendance_id, breakfast, reinforced_breakfast, snack,
			afternoon_snack, dry_meal, lunch, transport_amount
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id
	`
	err = q.QueryRow(ctx, foodQuery,
		record.ID,
		food.Breakfast,
		food.ReinforcedBreakfast,
		food.Snack,
		food.AfternoonSnack,
		food.DryMeal,
		food.Lunch,
		food.TransportAmount,
	).Scan(&food.ID)
	if err != nil {
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create food allowance: %w", err)
	}

	if bundle.Extra != nil {
		extra := bundle.Extra
		extraQuery := `
			INSERT INTO extra_hours (
				attendance_id, night_hours, supplementary_hours, extraordinary_hours
			) VALUES (
				$1, $2, $3, $4
			) RETURNING id
		`
		err = q.QueryRow(ctx, extraQuery,
			record.ID,
			extra.NightHours,
			extra.SupplementaryHours,
			extra.ExtraordinaryHours,
		).Scan(&extra.ID)
		if err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to create extra hours: %w", err)
		}
	}

	return record, nil
}

// ListEmployeeIDsWithRecord implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListEmployeeIDsWithRecord(ctx context.Context, date time.Time, employeeIDs []string) ([]string, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id
		FROM attendance_records
		WHERE date = $1
		  AND employee_id = ANY($2)
	`

	rows, err := q.Query(ctx, query, date, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListByDateAndAreaIDs implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDateAndAreaIDs(ctx context.Context, date time.Time, areaIDs []string) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT a.id, a.employee_id, a.date, a.entry_time, a.exit_time,
			   a.lunch_duration_minutes, a.worked_hours, a.is_vacation,
			   a.permission_hours, a.permission_reason, a.registered_by,
			   a.created_at, a.updated_at,
			   e.full_name AS employee_name,
			   e.identification AS employee_identification,
			   e.area_id,
			   ar.name AS area_name
		FROM attendance_records a
		JOIN employees e ON e.id = a.employee_id
		JOIN areas ar ON ar.id = e.area_id
		WHERE a.date = $1
		  AND e.area_id = ANY($2)
		ORDER BY ar.name, e.full_name
	`

	rows, err := q.Query(ctx, query, date, areaIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceRecord, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.AreaID != nil && *filter.AreaID != "" {
		baseWhere += fmt.Sprintf(" AND e.area_id = $%d", argIdx)
		args = append(args, *filter.AreaID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM attendance_records a
		JOIN employees e ON e.id = a.employee_id
		WHERE ` + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	// Build ORDER BY
	orderByField := "a.date"
	switch filter.SortBy {
	case "employee_name":
		orderByField = "e.full_name"
	case "worked_hours":
		orderByField = "a.worked_hours"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT a.id, a.employee_id, a.date, a.entry_time, a.exit_time,
			   a.lunch_duration_minutes, a.worked_hours, a.is_vacation,
			   a.permission_hours, a.permission_reason, a.registered_by,
			   a.created_at, a.updated_at,
			   e.full_name AS employee_name,
			   e.identification AS employee_identification,
			   e.area_id,
			   ar.name AS area_name
		FROM attendance_records a
		JOIN employees e ON e.id = a.employee_id
		JOIN areas ar ON ar.id = e.area_id
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func scanRecords(rows pgx.Rows) ([]attendance.AttendanceRecord, error) {
	var records []attendance.AttendanceRecord
	for rows.Next() {
		var rec attendance.AttendanceRecord
		err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.Date, &rec.EntryTime, &rec.ExitTime,
			&rec.LunchDurationMinutes, &rec.WorkedHours, &rec.IsVacation,
			&rec.PermissionHours, &rec.PermissionReason, &rec.RegisteredBy,
			&rec.CreatedAt, &rec.UpdatedAt,
			&rec.EmployeeName, &rec.EmployeeIdentification, &rec.AreaID, &rec.AreaName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
