// internal/interpreter/interpreter.go
package interpreter

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"barcodebuddy/internal/config"
	"barcodebuddy/internal/model"
)

// Interpreter classifies scan events against the configured control
// markers and maintains the session state: the active mode and the pending
// quantity for the next product scan.
//
// Run is the single consumer of the fan-in event stream, so the session
// state needs no lock of its own; the mutex only guards the Snapshot
// accessor used by the status endpoint.
type Interpreter struct {
	cfg    *config.BarcodeConfig
	logger *zap.Logger

	mu      sync.Mutex
	mode    model.Mode
	pending int
}

// Snapshot is a read-only view of the session state.
type Snapshot struct {
	Mode            model.Mode `json:"mode"`
	PendingQuantity int        `json:"pending_quantity"`
	DefaultQuantity int        `json:"default_quantity"`
}

// New creates an interpreter with mode ADD and no pending quantity.
func New(cfg *config.BarcodeConfig, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "interpreter")),
		mode:   model.ModeAdd,
	}
}

// Snapshot returns the current session state.
func (it *Interpreter) Snapshot() Snapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return Snapshot{
		Mode:            it.mode,
		PendingQuantity: it.pending,
		DefaultQuantity: it.cfg.DefaultQuantity,
	}
}

// Interpret classifies one scan event and applies its state transition.
// It returns false for scans that produce no action (empty or
// whitespace-only text).
//
// Classification priority, first match wins: mode marker, quantity prefix,
// product code.
func (it *Interpreter) Interpret(ev model.ScanEvent) (model.ScanAction, bool) {
	if strings.TrimSpace(ev.Barcode) == "" {
		return model.ScanAction{}, false
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	switch ev.Barcode {
	case it.cfg.AddMarker:
		it.mode = model.ModeAdd
		return model.ScanAction{Type: model.ActionSetMode, Event: ev, Mode: model.ModeAdd}, true
	case it.cfg.ConsumeMarker:
		it.mode = model.ModeConsume
		return model.ScanAction{Type: model.ActionSetMode, Event: ev, Mode: model.ModeConsume}, true
	}

	if strings.HasPrefix(ev.Barcode, it.cfg.QuantityPrefix) {
		suffix := ev.Barcode[len(it.cfg.QuantityPrefix):]
		if delta, err := strconv.Atoi(suffix); err == nil && delta >= 0 {
			it.pending += delta
			return model.ScanAction{
				Type:    model.ActionAccumulateQuantity,
				Event:   ev,
				Mode:    it.mode,
				Delta:   delta,
				Pending: it.pending,
			}, true
		}
		// A malformed or negative suffix is not an error: the literal
		// text is still a safe lookup candidate, so it falls through to
		// the product classification.
	}

	quantity := it.pending
	if quantity <= 0 {
		quantity = it.cfg.DefaultQuantity
	}
	it.pending = 0

	return model.ScanAction{
		Type:     model.ActionResolveProduct,
		Event:    ev,
		Mode:     it.mode,
		Code:     ev.Barcode,
		Quantity: quantity,
	}, true
}

// Run consumes the scan event stream until the context is cancelled or
// the stream is closed, forwarding one action per classified event. It
// closes the action channel on exit.
func (it *Interpreter) Run(ctx context.Context, events <-chan model.ScanEvent, actions chan<- model.ScanAction) {
	defer close(actions)

	it.logger.Info("Interpreter started",
		zap.String("add_marker", it.cfg.AddMarker),
		zap.String("consume_marker", it.cfg.ConsumeMarker),
		zap.String("quantity_prefix", it.cfg.QuantityPrefix),
		zap.Int("default_quantity", it.cfg.DefaultQuantity),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			action, ok := it.Interpret(ev)
			if !ok {
				continue
			}

			it.logger.Info("Scan classified",
				zap.String("device", ev.Device),
				zap.String("barcode", ev.Barcode),
				zap.String("action", string(action.Type)),
			)

			select {
			case actions <- action:
			case <-ctx.Done():
				return
			}
		}
	}
}
