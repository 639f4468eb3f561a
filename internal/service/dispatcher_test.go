package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"barcodebuddy/internal/grocy"
	"barcodebuddy/internal/lookup"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/repository"
)

type fakeInventory struct {
	products map[string]*grocy.Product

	createdName string
	createdID   int
	barcodes    map[int]string
	added       map[int]decimal.Decimal
	consumed    map[int]decimal.Decimal

	lookupErr error
	stockErr  error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		products: map[string]*grocy.Product{},
		barcodes: map[int]string{},
		added:    map[int]decimal.Decimal{},
		consumed: map[int]decimal.Decimal{},
	}
}

func (f *fakeInventory) ProductByBarcode(ctx context.Context, barcode string) (*grocy.Product, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if p, ok := f.products[barcode]; ok {
		return p, nil
	}
	return nil, grocy.ErrNotFound
}

func (f *fakeInventory) CreateProduct(ctx context.Context, name, description string) (int, error) {
	f.createdName = name
	f.createdID = 99
	return f.createdID, nil
}

func (f *fakeInventory) AddBarcode(ctx context.Context, productID int, barcode string) error {
	f.barcodes[productID] = barcode
	return nil
}

func (f *fakeInventory) AddStock(ctx context.Context, productID int, amount decimal.Decimal) error {
	if f.stockErr != nil {
		return f.stockErr
	}
	f.added[productID] = f.added[productID].Add(amount)
	return nil
}

func (f *fakeInventory) ConsumeStock(ctx context.Context, productID int, amount decimal.Decimal) error {
	if f.stockErr != nil {
		return f.stockErr
	}
	f.consumed[productID] = f.consumed[productID].Add(amount)
	return nil
}

type fakeResolver struct {
	product *lookup.Product
	err     error
}

func (f *fakeResolver) Lookup(ctx context.Context, barcode string) (*lookup.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

type fakeBroadcaster struct {
	records []*model.ScanRecord
}

func (f *fakeBroadcaster) BroadcastScan(record *model.ScanRecord) {
	f.records = append(f.records, record)
}

func productAction(code string, mode model.Mode, quantity int) model.ScanAction {
	return model.ScanAction{
		Type:     model.ActionResolveProduct,
		Event:    model.NewScanEvent(code, "/dev/hidraw0"),
		Mode:     mode,
		Code:     code,
		Quantity: quantity,
	}
}

func TestDispatch_ModeActionOnlyLogs(t *testing.T) {
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(newFakeInventory(), nil, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), model.ScanAction{
		Type:  model.ActionSetMode,
		Event: model.NewScanEvent("BBUDDY-CONSUME", "/dev/hidraw0"),
		Mode:  model.ModeConsume,
	})

	if record.Status != model.ScanStatusMode {
		t.Errorf("Expected mode status, got %s", record.Status)
	}
	if count, _ := scanLog.Count(context.Background()); count != 1 {
		t.Errorf("Expected 1 logged record, got %d", count)
	}
}

func TestDispatch_KnownBarcodeAddsStock(t *testing.T) {
	inventory := newFakeInventory()
	inventory.products["111"] = &grocy.Product{ID: 7, Name: "Milk"}
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	bus := &fakeBroadcaster{}
	d := NewDispatcher(inventory, nil, scanLog, bus, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("111", model.ModeAdd, 3))

	if record.Status != model.ScanStatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", record.Status, record.Message)
	}
	if record.Product != "Milk" {
		t.Errorf("Expected product name, got %q", record.Product)
	}
	if !inventory.added[7].Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected 3 added for product 7, got %s", inventory.added[7])
	}
	if len(bus.records) != 1 {
		t.Errorf("Expected 1 broadcast record, got %d", len(bus.records))
	}
}

func TestDispatch_ConsumeModeConsumesStock(t *testing.T) {
	inventory := newFakeInventory()
	inventory.products["111"] = &grocy.Product{ID: 7, Name: "Milk"}
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(inventory, nil, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("111", model.ModeConsume, 2))

	if record.Status != model.ScanStatusSuccess {
		t.Fatalf("Expected success, got %s (%s)", record.Status, record.Message)
	}
	if !inventory.consumed[7].Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected 2 consumed for product 7, got %s", inventory.consumed[7])
	}
	if len(inventory.added) != 0 {
		t.Error("Consume mode must not add stock")
	}
}

func TestDispatch_UnknownBarcodeCreatedFromLookup(t *testing.T) {
	inventory := newFakeInventory()
	resolver := &fakeResolver{product: &lookup.Product{Name: "Beans", Brand: "Acme"}}
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(inventory, resolver, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("222", model.ModeAdd, 1))

	if record.Status != model.ScanStatusCreated {
		t.Fatalf("Expected created, got %s (%s)", record.Status, record.Message)
	}
	if inventory.createdName != "Beans" {
		t.Errorf("Expected product created from lookup, got %q", inventory.createdName)
	}
	if inventory.barcodes[99] != "222" {
		t.Errorf("Expected barcode attached to new product, got %q", inventory.barcodes[99])
	}
	if !inventory.added[99].Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected stock booked for new product, got %s", inventory.added[99])
	}
}

func TestDispatch_TotalMissIsNotFound(t *testing.T) {
	inventory := newFakeInventory()
	resolver := &fakeResolver{err: lookup.ErrNotFound}
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(inventory, resolver, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("333", model.ModeAdd, 1))

	if record.Status != model.ScanStatusNotFound {
		t.Errorf("Expected not_found, got %s", record.Status)
	}
	if inventory.createdName != "" {
		t.Error("No product must be created on a total miss")
	}
}

func TestDispatch_NoInventoryConfigured(t *testing.T) {
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(nil, nil, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("444", model.ModeAdd, 1))

	if record.Status != model.ScanStatusNoInventory {
		t.Errorf("Expected no_inventory, got %s", record.Status)
	}
	if count, _ := scanLog.Count(context.Background()); count != 1 {
		t.Error("Scan must still be logged without an inventory service")
	}
}

func TestDispatch_StockErrorReported(t *testing.T) {
	inventory := newFakeInventory()
	inventory.products["111"] = &grocy.Product{ID: 7, Name: "Milk"}
	inventory.stockErr = errors.New("grocy is down")
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(inventory, nil, scanLog, nil, zap.NewNop())

	record := d.Dispatch(context.Background(), productAction("111", model.ModeAdd, 1))

	if record.Status != model.ScanStatusError {
		t.Errorf("Expected error status, got %s", record.Status)
	}
}

func TestRun_ConsumesUntilStreamCloses(t *testing.T) {
	inventory := newFakeInventory()
	inventory.products["111"] = &grocy.Product{ID: 7, Name: "Milk"}
	scanLog := repository.NewMemoryScanLogRepository(10, zap.NewNop())
	d := NewDispatcher(inventory, nil, scanLog, nil, zap.NewNop())

	actions := make(chan model.ScanAction, 2)
	actions <- productAction("111", model.ModeAdd, 1)
	actions <- productAction("111", model.ModeAdd, 2)
	close(actions)

	d.Run(context.Background(), actions)

	if !inventory.added[7].Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected both actions booked, got %s", inventory.added[7])
	}
}
