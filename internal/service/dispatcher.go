// internal/service/dispatcher.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"barcodebuddy/internal/grocy"
	"barcodebuddy/internal/lookup"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/repository"
)

// Resolver looks up unknown barcodes in external product databases.
// Satisfied by lookup.Chain.
type Resolver interface {
	Lookup(ctx context.Context, barcode string) (*lookup.Product, error)
}

// Broadcaster pushes finished scan records to live subscribers.
type Broadcaster interface {
	BroadcastScan(record *model.ScanRecord)
}

// Dispatcher executes interpreter actions against the inventory service
// and records every outcome in the scan log. A nil inventory means no
// Grocy instance is configured; product scans are then logged without a
// stock booking.
type Dispatcher struct {
	inventory grocy.Inventory
	resolver  Resolver
	scanLog   repository.ScanLogRepository
	events    Broadcaster
	logger    *zap.Logger
}

// NewDispatcher creates an action dispatcher. inventory, resolver and
// events may each be nil.
func NewDispatcher(
	inventory grocy.Inventory,
	resolver Resolver,
	scanLog repository.ScanLogRepository,
	events Broadcaster,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		inventory: inventory,
		resolver:  resolver,
		scanLog:   scanLog,
		events:    events,
		logger:    logger.With(zap.String("component", "dispatcher")),
	}
}

// Run consumes the action stream until the context is cancelled or the
// stream is closed.
func (d *Dispatcher) Run(ctx context.Context, actions <-chan model.ScanAction) {
	for {
		select {
		case <-ctx.Done():
			return
		case action, ok := <-actions:
			if !ok {
				return
			}
			d.Dispatch(ctx, action)
		}
	}
}

// Dispatch executes one action and returns the resulting scan record.
func (d *Dispatcher) Dispatch(ctx context.Context, action model.ScanAction) *model.ScanRecord {
	record := &model.ScanRecord{
		ID:        action.Event.ID,
		Barcode:   action.Event.Barcode,
		Device:    action.Event.Device,
		Mode:      action.Mode,
		CreatedAt: time.Now(),
	}

	switch action.Type {
	case model.ActionSetMode:
		record.Status = model.ScanStatusMode
		record.Message = fmt.Sprintf("Mode set to %s", action.Mode)

	case model.ActionAccumulateQuantity:
		record.Status = model.ScanStatusQuantity
		record.Quantity = action.Delta
		record.Message = fmt.Sprintf("Pending quantity is now %d", action.Pending)

	case model.ActionResolveProduct:
		record.Quantity = action.Quantity
		d.resolveProduct(ctx, action, record)

	default:
		record.Status = model.ScanStatusError
		record.Message = fmt.Sprintf("Unknown action type %s", action.Type)
	}

	d.finish(ctx, record)
	return record
}

// resolveProduct books a product scan against the inventory, creating
// the product from an external lookup when the barcode is unknown.
func (d *Dispatcher) resolveProduct(ctx context.Context, action model.ScanAction, record *model.ScanRecord) {
	if d.inventory == nil {
		record.Status = model.ScanStatusNoInventory
		record.Message = "No inventory service configured; scan logged only"
		return
	}

	product, err := d.inventory.ProductByBarcode(ctx, action.Code)
	switch {
	case err == nil:
		record.Product = product.Name
		if err := d.bookStock(ctx, product.ID, action); err != nil {
			record.Status = model.ScanStatusError
			record.Message = fmt.Sprintf("Stock booking failed: %v", err)
			return
		}
		record.Status = model.ScanStatusSuccess
		record.Message = fmt.Sprintf("%s: %s x%d", stockVerb(action.Mode), product.Name, action.Quantity)

	case errors.Is(err, grocy.ErrNotFound):
		d.createFromLookup(ctx, action, record)

	default:
		record.Status = model.ScanStatusError
		record.Message = fmt.Sprintf("Inventory lookup failed: %v", err)
	}
}

// createFromLookup resolves an unknown barcode through the external
// product databases and creates the product in the inventory.
func (d *Dispatcher) createFromLookup(ctx context.Context, action model.ScanAction, record *model.ScanRecord) {
	if d.resolver == nil {
		record.Status = model.ScanStatusNotFound
		record.Message = "Barcode not known to inventory"
		return
	}

	found, err := d.resolver.Lookup(ctx, action.Code)
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			record.Status = model.ScanStatusNotFound
			record.Message = "Barcode not found in any product database"
		} else {
			record.Status = model.ScanStatusError
			record.Message = fmt.Sprintf("Product database lookup failed: %v", err)
		}
		return
	}

	productID, err := d.inventory.CreateProduct(ctx, found.Name, found.Description())
	if err != nil {
		record.Status = model.ScanStatusError
		record.Message = fmt.Sprintf("Failed to create product %q: %v", found.Name, err)
		return
	}

	if err := d.inventory.AddBarcode(ctx, productID, action.Code); err != nil {
		record.Status = model.ScanStatusError
		record.Message = fmt.Sprintf("Failed to attach barcode to %q: %v", found.Name, err)
		return
	}

	record.Product = found.Name
	if err := d.bookStock(ctx, productID, action); err != nil {
		record.Status = model.ScanStatusError
		record.Message = fmt.Sprintf("Product created but stock booking failed: %v", err)
		return
	}

	record.Status = model.ScanStatusCreated
	record.Message = fmt.Sprintf("Created %s and %s x%d", found.Name, lowerVerb(action.Mode), action.Quantity)
}

// bookStock applies the quantity in the direction of the active mode
func (d *Dispatcher) bookStock(ctx context.Context, productID int, action model.ScanAction) error {
	amount := decimal.NewFromInt(int64(action.Quantity))
	if action.Mode == model.ModeConsume {
		return d.inventory.ConsumeStock(ctx, productID, amount)
	}
	return d.inventory.AddStock(ctx, productID, amount)
}

// finish persists the record and notifies live subscribers
func (d *Dispatcher) finish(ctx context.Context, record *model.ScanRecord) {
	if err := d.scanLog.Record(ctx, record); err != nil {
		d.logger.Error("Failed to record scan outcome",
			zap.String("barcode", record.Barcode),
			zap.Error(err),
		)
	}

	if d.events != nil {
		d.events.BroadcastScan(record)
	}

	d.logger.Info("Scan dispatched",
		zap.String("barcode", record.Barcode),
		zap.String("device", record.Device),
		zap.String("status", string(record.Status)),
		zap.String("message", record.Message),
	)
}

func stockVerb(mode model.Mode) string {
	if mode == model.ModeConsume {
		return "Consumed"
	}
	return "Added"
}

func lowerVerb(mode model.Mode) string {
	if mode == model.ModeConsume {
		return "consumed"
	}
	return "added"
}
