package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

func record(barcode string, createdAt time.Time) *model.ScanRecord {
	return &model.ScanRecord{
		Barcode:   barcode,
		Status:    model.ScanStatusSuccess,
		CreatedAt: createdAt,
	}
}

func TestMemoryScanLog_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryScanLogRepository(10, zap.NewNop())
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		if err := repo.Record(ctx, record(fmt.Sprintf("code-%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recent))
	}
	if recent[0].Barcode != "code-2" || recent[1].Barcode != "code-1" {
		t.Errorf("Expected newest first, got %s, %s", recent[0].Barcode, recent[1].Barcode)
	}
}

func TestMemoryScanLog_EvictsOldestWhenFull(t *testing.T) {
	repo := NewMemoryScanLogRepository(3, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Record(ctx, record(fmt.Sprintf("code-%d", i), time.Now()))
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 records after eviction, got %d", count)
	}

	recent, _ := repo.Recent(ctx, 0)
	if len(recent) != 3 {
		t.Fatalf("Expected all 3 records, got %d", len(recent))
	}
	if recent[len(recent)-1].Barcode != "code-2" {
		t.Errorf("Expected oldest surviving record to be code-2, got %s", recent[len(recent)-1].Barcode)
	}
}

func TestMemoryScanLog_DeleteOlderThan(t *testing.T) {
	repo := NewMemoryScanLogRepository(10, zap.NewNop())
	ctx := context.Background()

	now := time.Now()
	repo.Record(ctx, record("old", now.Add(-2*time.Hour)))
	repo.Record(ctx, record("fresh", now))

	removed, err := repo.DeleteOlderThan(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed record, got %d", removed)
	}

	recent, _ := repo.Recent(ctx, 0)
	if len(recent) != 1 || recent[0].Barcode != "fresh" {
		t.Errorf("Expected only the fresh record to survive, got %+v", recent)
	}
}
