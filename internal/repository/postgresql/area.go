package postgresql

import (
	"context"
	"fmt"

	"github.com/agrofield/attendance-backend-go/internal/domain/area"
	"github.com/agrofield/attendance-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type areaRepository struct {
	db *database.DB
}

// GetByIDs implements area.AreaRepository.
func (a *areaRepository) GetByIDs(ctx context.Context, ids []string) ([]area.Area, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, name, default_entry_time, default_exit_time,
			   default_lunch_minutes, default_working_hours,
			   created_at, updated_at
		FROM areas
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas by ids: %w", err)
	}
	defer rows.Close()

	return scanAreas(rows)
}

// ListAll implements area.AreaRepository.
func (a *areaRepository) ListAll(ctx context.Context) ([]area.Area, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, name, default_entry_time, default_exit_time,
			   default_lunch_minutes, default_working_hours,
			   created_at, updated_at
		FROM areas
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %w", err)
	}
	defer rows.Close()

	return scanAreas(rows)
}

func scanAreas(rows pgx.Rows) ([]area.Area, error) {
	var areas []area.Area
	for rows.Next() {
		var ar area.Area
		err := rows.Scan(
			&ar.ID, &ar.Name, &ar.DefaultEntryTime, &ar.DefaultExitTime,
			&ar.DefaultLunchMinutes, &ar.DefaultWorkingHours,
			&ar.CreatedAt, &ar.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, ar)
	}
	return areas, rows.Err()
}

func NewAreaRepository(db *database.DB) area.AreaRepository {
	return &areaRepository{db: db}
}
