package domain

import "time"

// Department is an organizational unit. Departments form a tree through ParentID.
type Department struct {
	ID          string
	ParentID    *string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
