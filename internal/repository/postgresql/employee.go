package postgresql

import (
	"context"
	"fmt"

	"github.com/agrofield/attendance-backend-go/internal/domain/employee"
	"github.com/agrofield/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepository struct {
	db *database.DB
}

// ListActiveByIDs implements employee.EmployeeRepository.
func (e *employeeRepository) ListActiveByIDs(ctx context.Context, ids []string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT e.id, e.area_id, e.identification, e.full_name, e.status,
			   e.hire_date, e.created_at, e.updated_at,
			   ar.name AS area_name
		FROM employees e
		JOIN areas ar ON ar.id = e.area_id
		WHERE e.id = ANY($1)
		  AND e.status = 'active'
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees by ids: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// ListActiveByAreaIDs implements employee.EmployeeRepository.
func (e *employeeRepository) ListActiveByAreaIDs(ctx context.Context, areaIDs []string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT e.id, e.area_id, e.identification, e.full_name, e.status,
			   e.hire_date, e.created_at, e.updated_at,
			   ar.name AS area_name
		FROM employees e
		JOIN areas ar ON ar.id = e.area_id
		WHERE e.area_id = ANY($1)
		  AND e.status = 'active'
		ORDER BY ar.name, e.full_name
	`

	rows, err := q.Query(ctx, query, areaIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees by areas: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

func scanEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	var employees []employee.Employee
	for rows.Next() {
		var emp employee.Employee
		err := rows.Scan(
			&emp.ID, &emp.AreaID, &emp.Identification, &emp.FullName, &emp.Status,
			&emp.HireDate, &emp.CreatedAt, &emp.UpdatedAt,
			&emp.AreaName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}
