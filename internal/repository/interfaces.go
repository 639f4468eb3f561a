// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"barcodebuddy/internal/model"
)

// ScanLogRepository defines scan history data access operations
type ScanLogRepository interface {
	// Record stores the outcome of a processed scan
	Record(ctx context.Context, record *model.ScanRecord) error

	// Recent returns the newest records, most recent first
	Recent(ctx context.Context, limit int) ([]*model.ScanRecord, error)

	// Count returns the total number of stored records
	Count(ctx context.Context) (int, error)

	// DeleteOlderThan removes records past their retention window
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
