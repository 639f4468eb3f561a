// internal/scanner/reader.go
package scanner

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"barcodebuddy/internal/hid"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/utils"
)

// Reader owns one HID scanner device. It runs a dedicated loop that reads
// input reports, decodes them and assembles a line; a decoded terminator
// emits one ScanEvent. The reader has its own decoder state and line
// buffer, so devices cannot interleave partial scans.
type Reader struct {
	path     string
	source   ReportSource
	emit     func(model.ScanEvent)
	lost     chan<- string
	stop     chan struct{}
	stopOnce sync.Once
	logger   *utils.DeviceLogger
	maxLine  int

	state hid.State
	line  []rune
}

// NewReader creates a reader bound to an already opened device.
func NewReader(path string, source ReportSource, maxLine int, emit func(model.ScanEvent), lost chan<- string, logger *zap.Logger) *Reader {
	return &Reader{
		path:    path,
		source:  source,
		emit:    emit,
		lost:    lost,
		stop:    make(chan struct{}),
		logger:  utils.NewDeviceLogger(logger, path, "hidraw"),
		maxLine: maxLine,
		line:    make([]rune, 0, maxLine),
	}
}

// Path returns the device path this reader owns.
func (r *Reader) Path() string {
	return r.path
}

// Stop signals the read loop to terminate. The loop observes the signal
// within one bounded read interval. Safe to call from multiple
// goroutines.
func (r *Reader) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Run executes the read loop until the device is lost or Stop is called.
// It closes the device handle on exit.
func (r *Reader) Run() {
	defer r.source.Close()

	r.logger.LogAttach()

	buf := make([]byte, hid.ReportSize)
	for {
		select {
		case <-r.stop:
			r.logger.Info("Scanner reader stopped")
			return
		default:
		}

		n, err := r.source.ReadReport(buf)
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				continue
			}

			// Disconnect or permission loss. The in-flight partial
			// buffer is discarded with the device.
			r.logger.LogLost(err)
			select {
			case r.lost <- r.path:
			case <-r.stop:
			}
			return
		}

		r.handleReport(buf[:n])
	}
}

func (r *Reader) handleReport(report []byte) {
	ch, ok, next, err := hid.Decode(report, r.state)
	if err != nil {
		// Malformed single report, recoverable. State is untouched.
		r.logger.Debug("Discarding malformed report", zap.Error(err), zap.Int("length", len(report)))
		return
	}
	r.state = next

	if !ok {
		return
	}

	if ch == hid.Terminator {
		if len(r.line) > 0 {
			barcode := string(r.line)
			r.emit(model.NewScanEvent(barcode, r.path))
			r.logger.LogScan(barcode, len(r.line))
		}
		r.line = r.line[:0]
		return
	}

	// Ring policy: a runaway device without terminators drops its oldest
	// characters instead of growing the buffer.
	if len(r.line) >= r.maxLine {
		copy(r.line, r.line[1:])
		r.line = r.line[:len(r.line)-1]
	}
	r.line = append(r.line, ch)
}
