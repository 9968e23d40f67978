package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/sketch-gateway/models"
	"github.com/upb/sketch-gateway/repositories"
	"go.uber.org/zap"
)

// DispatchRepository implements the repositories.DispatchRepository interface
type DispatchRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDispatchRepository creates a new dispatch repository
func NewDispatchRepository(db *DB, logger *zap.Logger) repositories.DispatchRepository {
	return &DispatchRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new dispatch log entry
func (r *DispatchRepository) Insert(ctx context.Context, log *models.DispatchLog) error {
	query := `
		INSERT INTO gateway_dispatch_logs (
			id, request_id, operation, path, health_outcome,
			status_code, latency_ms, error_message, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.RequestID,
		log.Operation,
		log.Path,
		log.HealthOutcome,
		log.StatusCode,
		log.LatencyMs,
		log.ErrorMessage,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dispatch log: %w", err)
	}

	r.logger.Debug("dispatch log inserted",
		zap.String("id", log.ID.String()),
		zap.String("operation", log.Operation),
		zap.String("path", log.Path))
	return nil
}

// CountByPath aggregates recent dispatches of an operation per execution path
func (r *DispatchRepository) CountByPath(ctx context.Context, operation string, sinceHours int) (map[string]int, error) {
	query := `
		SELECT path, COUNT(*)
		FROM gateway_dispatch_logs
		WHERE operation = $1 AND timestamp >= $2
		GROUP BY path
	`

	since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)
	rows, err := r.db.QueryContext(ctx, query, operation, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count dispatches: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var count int
		if err := rows.Scan(&path, &count); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch count: %w", err)
		}
		counts[path] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatch counts: %w", err)
	}

	return counts, nil
}
