// internal/scanner/hidraw.go
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.bug.st/serial"

	"barcodebuddy/internal/config"
)

// hidrawSource reads input reports from a /dev/hidraw character device.
// hidraw nodes are pollable, so os.File read deadlines give the bounded
// wait the reader loop needs.
type hidrawSource struct {
	file    *os.File
	timeout time.Duration
}

func (s *hidrawSource) ReadReport(buf []byte) (int, error) {
	if err := s.file.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, fmt.Errorf("failed to set read deadline: %w", err)
	}

	n, err := s.file.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, ErrReadTimeout
		}
		return 0, err
	}
	return n, nil
}

func (s *hidrawSource) Close() error {
	return s.file.Close()
}

// serialSource wraps a serial port as a LineSource. The port's own read
// timeout makes Read return (0, nil) when no bytes arrived.
type serialSource struct {
	port serial.Port
}

func (s *serialSource) Read(buf []byte) (int, error) {
	return s.port.Read(buf)
}

func (s *serialSource) Close() error {
	return s.port.Close()
}

// systemOpener opens real devices.
type systemOpener struct {
	cfg *config.ScannerConfig
}

// NewSystemOpener returns the DeviceOpener used outside of tests.
func NewSystemOpener(cfg *config.ScannerConfig) DeviceOpener {
	return &systemOpener{cfg: cfg}
}

func (o *systemOpener) OpenReport(path string) (ReportSource, error) {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &hidrawSource{file: file, timeout: o.cfg.ReadTimeout}, nil
}

func (o *systemOpener) OpenSerial(port string) (LineSource, error) {
	mode := &serial.Mode{
		BaudRate: o.cfg.Serial.BaudRate,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}

	if err := p.SetReadTimeout(o.cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set serial read timeout: %w", err)
	}

	return &serialSource{port: p}, nil
}

// systemEnumerator enumerates real device namespaces.
type systemEnumerator struct {
	cfg *config.ScannerConfig
}

// NewSystemEnumerator returns the PortEnumerator used outside of tests.
func NewSystemEnumerator(cfg *config.ScannerConfig) PortEnumerator {
	return &systemEnumerator{cfg: cfg}
}

// HidrawPaths returns the fixed candidate namespace /dev/hidraw0..N-1.
// The cap keeps the managed set bounded regardless of what the kernel
// enumerates.
func (e *systemEnumerator) HidrawPaths() []string {
	paths := make([]string, 0, e.cfg.MaxDevices)
	for i := 0; i < e.cfg.MaxDevices; i++ {
		paths = append(paths, fmt.Sprintf(e.cfg.HidrawPattern, i))
	}
	return paths
}

func (e *systemEnumerator) SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var matched []string
	for _, port := range ports {
		for _, pattern := range e.cfg.Serial.PortPatterns {
			if ok, _ := filepath.Match(pattern, port); ok {
				matched = append(matched, port)
				break
			}
		}
	}
	return matched, nil
}
