// internal/model/scan.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Mode determines whether a resolved product increases or decreases stock.
type Mode string

const (
	ModeAdd     Mode = "ADD"
	ModeConsume Mode = "CONSUME"
)

// ScanEvent is one completed scan as emitted by a device reader.
type ScanEvent struct {
	ID         uuid.UUID `json:"id"`
	Barcode    string    `json:"barcode"`
	Device     string    `json:"device"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewScanEvent creates a scan event for a completed barcode read.
func NewScanEvent(barcode, device string) ScanEvent {
	return ScanEvent{
		ID:         uuid.New(),
		Barcode:    barcode,
		Device:     device,
		ObservedAt: time.Now(),
	}
}

// ActionType identifies the kind of action the interpreter produced.
type ActionType string

const (
	ActionSetMode            ActionType = "SET_MODE"
	ActionAccumulateQuantity ActionType = "ACCUMULATE_QUANTITY"
	ActionResolveProduct     ActionType = "RESOLVE_PRODUCT"
)

// ScanAction is the interpreter's classification of one scan event. It is a
// closed variant of three cases; Type selects which fields are meaningful.
type ScanAction struct {
	Type  ActionType `json:"type"`
	Event ScanEvent  `json:"event"`

	// ActionSetMode
	Mode Mode `json:"mode,omitempty"`

	// ActionAccumulateQuantity
	Delta int `json:"delta,omitempty"`
	// Running total after the delta was applied.
	Pending int `json:"pending,omitempty"`

	// ActionResolveProduct
	Code     string `json:"code,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
}

// ScanStatus classifies the outcome of a dispatched scan.
type ScanStatus string

const (
	ScanStatusMode        ScanStatus = "mode"
	ScanStatusQuantity    ScanStatus = "quantity"
	ScanStatusSuccess     ScanStatus = "success"
	ScanStatusCreated     ScanStatus = "created"
	ScanStatusNotFound    ScanStatus = "not_found"
	ScanStatusNoInventory ScanStatus = "no_inventory"
	ScanStatusError       ScanStatus = "error"
)

// ScanRecord is the user-visible result of one scan, as shown on the
// dashboard and stored in the scan log.
type ScanRecord struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Barcode   string     `json:"barcode" db:"barcode"`
	Device    string     `json:"device" db:"device"`
	Status    ScanStatus `json:"status" db:"status"`
	Message   string     `json:"message" db:"message"`
	Mode      Mode       `json:"mode" db:"mode"`
	Quantity  int        `json:"quantity" db:"quantity"`
	Product   string     `json:"product,omitempty" db:"product"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
