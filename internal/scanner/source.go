// internal/scanner/source.go
package scanner

import "errors"

// ErrReadTimeout is returned by a source when the bounded wait expired
// without data. It is a normal loop iteration, not a failure.
var ErrReadTimeout = errors.New("scanner: read timeout")

// ReportSource delivers fixed-size HID input reports from one device.
// Implementations must bound ReadReport with a deadline so readers can
// observe their stop signal.
type ReportSource interface {
	// ReadReport fills buf with one input report. Returns ErrReadTimeout
	// when the deadline expired with no data.
	ReadReport(buf []byte) (int, error)
	Close() error
}

// LineSource delivers raw bytes from a line-mode scanner, such as a serial
// scanner emitting CR/LF-terminated barcodes. A read that returns (0, nil)
// is a timeout iteration.
type LineSource interface {
	Read(buf []byte) (int, error)
	Close() error
}

// DeviceOpener opens scanner devices by path. Injected into the manager so
// tests can run against fake hardware.
type DeviceOpener interface {
	OpenReport(path string) (ReportSource, error)
	OpenSerial(port string) (LineSource, error)
}

// PortEnumerator lists candidate device paths for discovery.
type PortEnumerator interface {
	// HidrawPaths returns the bounded hidraw candidate namespace.
	HidrawPaths() []string
	// SerialPorts returns attached serial ports matching the configured
	// patterns.
	SerialPorts() ([]string, error)
}
