// internal/scanner/serial_reader.go
package scanner

import (
	"sync"

	"go.uber.org/zap"

	"barcodebuddy/internal/model"
	"barcodebuddy/internal/utils"
)

// SerialReader owns one serial scanner. Serial scanners already deliver
// characters, so no report decoding is involved; the reader assembles
// CR/LF-terminated lines with the same lifecycle as the HID reader.
type SerialReader struct {
	path     string
	source   LineSource
	emit     func(model.ScanEvent)
	lost     chan<- string
	stop     chan struct{}
	stopOnce sync.Once
	logger   *utils.DeviceLogger
	maxLine  int

	line []byte
}

// NewSerialReader creates a serial reader bound to an already opened port.
func NewSerialReader(path string, source LineSource, maxLine int, emit func(model.ScanEvent), lost chan<- string, logger *zap.Logger) *SerialReader {
	return &SerialReader{
		path:    path,
		source:  source,
		emit:    emit,
		lost:    lost,
		stop:    make(chan struct{}),
		logger:  utils.NewDeviceLogger(logger, path, "serial"),
		maxLine: maxLine,
		line:    make([]byte, 0, maxLine),
	}
}

// Path returns the port this reader owns.
func (r *SerialReader) Path() string {
	return r.path
}

// Stop signals the read loop to terminate. Safe to call from multiple
// goroutines.
func (r *SerialReader) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Run executes the read loop until the port is lost or Stop is called.
func (r *SerialReader) Run() {
	defer r.source.Close()

	r.logger.LogAttach()

	buf := make([]byte, 64)
	for {
		select {
		case <-r.stop:
			r.logger.Info("Scanner reader stopped")
			return
		default:
		}

		n, err := r.source.Read(buf)
		if err != nil {
			r.logger.LogLost(err)
			select {
			case r.lost <- r.path:
			case <-r.stop:
			}
			return
		}
		if n == 0 {
			// Port read timeout, nothing scanned.
			continue
		}

		for _, b := range buf[:n] {
			r.handleByte(b)
		}
	}
}

func (r *SerialReader) handleByte(b byte) {
	if b == '\r' || b == '\n' {
		if len(r.line) > 0 {
			barcode := string(r.line)
			r.emit(model.NewScanEvent(barcode, r.path))
			r.logger.LogScan(barcode, len(r.line))
		}
		r.line = r.line[:0]
		return
	}

	if len(r.line) >= r.maxLine {
		copy(r.line, r.line[1:])
		r.line = r.line[:len(r.line)-1]
	}
	r.line = append(r.line, b)
}
