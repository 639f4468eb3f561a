// internal/model/device.go
package model

import "time"

// Transport describes how a scanner delivers its data.
type Transport string

const (
	TransportHidraw Transport = "HIDRAW"
	TransportSerial Transport = "SERIAL"
)

// DeviceStatus represents the current status of a managed scanner.
type DeviceStatus string

const (
	DeviceStatusOnline DeviceStatus = "ONLINE"
	DeviceStatusLost   DeviceStatus = "LOST"
)

// ScannerDevice is one managed barcode scanner.
type ScannerDevice struct {
	Path       string       `json:"path"`
	Transport  Transport    `json:"transport"`
	Status     DeviceStatus `json:"status"`
	AttachedAt time.Time    `json:"attached_at"`
	LastScanAt *time.Time   `json:"last_scan_at,omitempty"`
	ScanCount  int64        `json:"scan_count"`
}

// USBDeviceInfo describes an attached USB device that looks like a scanner
// candidate, as reported by the discovery endpoint.
type USBDeviceInfo struct {
	Bus       int    `json:"bus"`
	Address   int    `json:"address"`
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
	Class     string `json:"class"`
	IsHID     bool   `json:"is_hid"`
}
