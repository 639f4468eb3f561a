// internal/scanner/manager.go
package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/config"
	"barcodebuddy/internal/model"
)

// deviceReader is what the manager needs from a reader, regardless of
// transport.
type deviceReader interface {
	Run()
	Stop()
	Path() string
}

type managedDevice struct {
	reader deviceReader
	info   model.ScannerDevice
}

// Manager discovers scanner devices, runs one reader per device and fans
// all scan events into a single ordered stream. Discovery and every reader
// run in their own goroutines; the events channel is the only
// synchronization point on the scan path.
type Manager struct {
	cfg        *config.ScannerConfig
	opener     DeviceOpener
	enumerator PortEnumerator
	logger     *zap.Logger

	events chan model.ScanEvent
	lost   chan string

	mu      sync.Mutex
	managed map[string]*managedDevice

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager using the real device namespaces.
func NewManager(cfg *config.ScannerConfig, logger *zap.Logger) *Manager {
	return NewManagerWith(cfg, NewSystemOpener(cfg), NewSystemEnumerator(cfg), logger)
}

// NewManagerWith creates a manager with injected device capabilities.
func NewManagerWith(cfg *config.ScannerConfig, opener DeviceOpener, enumerator PortEnumerator, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		opener:     opener,
		enumerator: enumerator,
		logger:     logger.With(zap.String("component", "scanner-manager")),
		events:     make(chan model.ScanEvent, 64),
		lost:       make(chan string, 8),
		managed:    make(map[string]*managedDevice),
	}
}

// Events returns the fan-in stream of completed scans. The channel is
// closed after Stop once all readers have terminated.
func (m *Manager) Events() <-chan model.ScanEvent {
	return m.events
}

// Start launches the discovery loop. Failing to run the very first sweep
// is the only fatal condition; a sweep that simply finds no devices is
// not an error.
func (m *Manager) Start(ctx context.Context) error {
	if m.cancel != nil {
		return fmt.Errorf("scanner manager already started")
	}

	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.discoveryLoop(ctx)

	m.wg.Add(1)
	go m.lostLoop(ctx)

	m.logger.Info("Scanner manager started",
		zap.String("hidraw_pattern", m.cfg.HidrawPattern),
		zap.Int("max_devices", m.cfg.MaxDevices),
		zap.Duration("poll_interval", m.cfg.PollInterval),
		zap.Bool("serial_enabled", m.cfg.Serial.Enabled),
	)
	return nil
}

// Stop terminates discovery and all readers, then closes the event stream.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()

	m.mu.Lock()
	for _, dev := range m.managed {
		dev.reader.Stop()
	}
	m.mu.Unlock()

	// Readers observe their stop signal within one bounded read interval,
	// so a short join is enough.
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		close(m.events)
	case <-time.After(5 * time.Second):
		// A stuck reader keeps the event channel open rather than
		// risking a send on a closed channel.
		m.logger.Warn("Timed out waiting for scanner readers to stop")
	}

	m.logger.Info("Scanner manager stopped")
}

// Devices returns a snapshot of the managed scanner set.
func (m *Manager) Devices() []model.ScannerDevice {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]model.ScannerDevice, 0, len(m.managed))
	for _, dev := range m.managed {
		devices = append(devices, dev.info)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices
}

// discoveryLoop polls the candidate namespaces for newly accessible,
// previously unmanaged devices.
func (m *Manager) discoveryLoop(ctx context.Context) {
	defer m.wg.Done()

	m.sweep(ctx)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	for _, path := range m.enumerator.HidrawPaths() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.tryPromote(path, model.TransportHidraw)
	}

	if !m.cfg.Serial.Enabled {
		return
	}

	ports, err := m.enumerator.SerialPorts()
	if err != nil {
		// Serial enumeration failing degrades to "no serial scanners",
		// it never takes down discovery.
		m.logger.Warn("Serial port enumeration failed", zap.Error(err))
		return
	}
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.tryPromote(port, model.TransportSerial)
	}
}

// tryPromote opens an unmanaged or lost path and, on success, starts a
// reader bound to it. A path that cannot be opened is simply not
// promoted.
func (m *Manager) tryPromote(path string, transport model.Transport) {
	m.mu.Lock()
	dev, exists := m.managed[path]
	online := exists && dev.info.Status == model.DeviceStatusOnline
	m.mu.Unlock()
	if online {
		return
	}

	var reader deviceReader
	emit := m.emitFunc(path)

	switch transport {
	case model.TransportHidraw:
		source, err := m.opener.OpenReport(path)
		if err != nil {
			return
		}
		reader = NewReader(path, source, m.cfg.MaxLineLength, emit, m.lost, m.logger)
	case model.TransportSerial:
		source, err := m.opener.OpenSerial(path)
		if err != nil {
			return
		}
		reader = NewSerialReader(path, source, m.cfg.MaxLineLength, emit, m.lost, m.logger)
	default:
		return
	}

	m.mu.Lock()
	if dev, exists := m.managed[path]; exists && dev.info.Status == model.DeviceStatusOnline {
		m.mu.Unlock()
		reader.Stop()
		return
	}
	m.managed[path] = &managedDevice{
		reader: reader,
		info: model.ScannerDevice{
			Path:       path,
			Transport:  transport,
			Status:     model.DeviceStatusOnline,
			AttachedAt: time.Now(),
		},
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		reader.Run()
	}()
}

// emitFunc builds the fan-in callback for one device: bump its stats,
// then push onto the shared event channel.
func (m *Manager) emitFunc(path string) func(model.ScanEvent) {
	return func(ev model.ScanEvent) {
		m.mu.Lock()
		if dev, ok := m.managed[path]; ok {
			now := ev.ObservedAt
			dev.info.LastScanAt = &now
			dev.info.ScanCount++
		}
		m.mu.Unlock()

		m.events <- ev

		m.logger.Debug("Scan event",
			zap.String("device", ev.Device),
			zap.String("barcode", ev.Barcode),
		)
	}
}

// lostLoop marks devices whose readers reported a read failure. A lost
// device stays in the snapshot so operators can see it went away; a
// later discovery sweep re-promotes the path once it is readable again.
func (m *Manager) lostLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case path := <-m.lost:
			m.mu.Lock()
			if dev, ok := m.managed[path]; ok {
				dev.info.Status = model.DeviceStatusLost
			}
			m.mu.Unlock()

			m.logger.Info("Scanner device lost", zap.String("device", path))
		}
	}
}
