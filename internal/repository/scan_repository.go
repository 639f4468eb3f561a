// internal/repository/scan_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/database"
	"barcodebuddy/internal/model"
)

// postgresScanLogRepository implements ScanLogRepository on Postgres
type postgresScanLogRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPostgresScanLogRepository creates a Postgres-backed scan log
func NewPostgresScanLogRepository(db *database.DB, logger *zap.Logger) ScanLogRepository {
	return &postgresScanLogRepository{
		db:     db,
		logger: logger,
	}
}

// Record stores the outcome of a processed scan
func (r *postgresScanLogRepository) Record(ctx context.Context, record *model.ScanRecord) error {
	query := `
		INSERT INTO scan_history (
			id, barcode, device, status, message, mode, quantity, product, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.Barcode, record.Device, record.Status,
		record.Message, record.Mode, record.Quantity, record.Product,
		record.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to record scan", zap.Error(err))
		return fmt.Errorf("failed to record scan: %w", err)
	}

	return nil
}

// Recent returns the newest records, most recent first
func (r *postgresScanLogRepository) Recent(ctx context.Context, limit int) ([]*model.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, barcode, device, status, message, mode, quantity, product, created_at
		FROM scan_history
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var records []*model.ScanRecord
	for rows.Next() {
		record := &model.ScanRecord{}
		err := rows.Scan(
			&record.ID, &record.Barcode, &record.Device, &record.Status,
			&record.Message, &record.Mode, &record.Quantity, &record.Product,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}

// Count returns the total number of stored records
func (r *postgresScanLogRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_history`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records created before the cutoff
func (r *postgresScanLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scan_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old scans: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed > 0 {
		r.logger.Info("Removed old scan records", zap.Int64("count", removed))
	}
	return removed, nil
}
