// internal/repository/memory_repository.go
package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

// memoryScanLogRepository keeps a bounded in-memory scan history. It is
// the default backend when no database is configured.
type memoryScanLogRepository struct {
	mu      sync.RWMutex
	records []*model.ScanRecord
	max     int
	logger  *zap.Logger
}

// NewMemoryScanLogRepository creates an in-memory scan log holding at
// most max records; the oldest record is evicted first.
func NewMemoryScanLogRepository(max int, logger *zap.Logger) ScanLogRepository {
	if max <= 0 {
		max = 50
	}
	return &memoryScanLogRepository{
		records: make([]*model.ScanRecord, 0, max),
		max:     max,
		logger:  logger,
	}
}

// Record appends a scan record, evicting the oldest entry when full
func (r *memoryScanLogRepository) Record(ctx context.Context, record *model.ScanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) == r.max {
		copy(r.records, r.records[1:])
		r.records = r.records[:r.max-1]
	}
	r.records = append(r.records, record)
	return nil
}

// Recent returns the newest records, most recent first
func (r *memoryScanLogRepository) Recent(ctx context.Context, limit int) ([]*model.ScanRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}

	out := make([]*model.ScanRecord, 0, limit)
	for i := len(r.records) - 1; i >= len(r.records)-limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

// Count returns the number of stored records
func (r *memoryScanLogRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// DeleteOlderThan removes records created before the cutoff
func (r *memoryScanLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var removed int64
	for _, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(r.records); i++ {
		r.records[i] = nil
	}
	r.records = kept
	return removed, nil
}
