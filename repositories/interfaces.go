package repositories

import (
	"context"

	"github.com/upb/sketch-gateway/models"
)

// DispatchRepository persists the gateway's dispatch decisions
type DispatchRepository interface {
	// Insert appends a dispatch log entry
	Insert(ctx context.Context, log *models.DispatchLog) error

	// CountByPath returns how many dispatches of an operation took each path since the given number of hours
	CountByPath(ctx context.Context, operation string, sinceHours int) (map[string]int, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Dispatches DispatchRepository
}
