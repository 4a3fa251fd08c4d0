package employee

import (
	"time"
)

type Employee struct {
	ID             string
	AreaID         string
	Identification string
	FullName       string
	Status         EmploymentStatus
	HireDate       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// DTO
	AreaName *string
}

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
)
