// internal/discovery/usb.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"barcodebuddy/internal/model"
)

const usbClassHID = 3

// USBLister enumerates attached USB devices so operators can check
// whether a scanner is visible on the bus before it shows up under
// /dev/hidraw.
type USBLister struct {
	logger *zap.Logger
}

// NewUSBLister creates a USB device lister
func NewUSBLister(logger *zap.Logger) *USBLister {
	return &USBLister{
		logger: logger.With(zap.String("component", "usb-discovery")),
	}
}

// List enumerates attached USB devices. HID devices are flagged as
// scanner candidates.
func (l *USBLister) List(ctx context.Context) ([]model.USBDeviceInfo, error) {
	start := time.Now()

	usbCtx := gousb.NewContext()
	defer func() {
		if err := usbCtx.Close(); err != nil {
			l.logger.Warn("Failed to close USB context", zap.Error(err))
		}
	}()

	var found []model.USBDeviceInfo

	// The visitor never opens a device; it only collects descriptors.
	_, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		found = append(found, model.USBDeviceInfo{
			Bus:       desc.Bus,
			Address:   desc.Address,
			VendorID:  fmt.Sprintf("0x%04X", uint16(desc.Vendor)),
			ProductID: fmt.Sprintf("0x%04X", uint16(desc.Product)),
			Class:     desc.Class.String(),
			IsHID:     l.isHID(desc),
		})
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Bus != found[j].Bus {
			return found[i].Bus < found[j].Bus
		}
		return found[i].Address < found[j].Address
	})

	l.logger.Debug("USB enumeration completed",
		zap.Int("devices", len(found)),
		zap.Duration("duration", time.Since(start)),
	)

	return found, nil
}

// isHID reports whether the device presents a HID class, either on the
// device descriptor or on any interface.
func (l *USBLister) isHID(desc *gousb.DeviceDesc) bool {
	if desc.Class == usbClassHID {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, setting := range intf.AltSettings {
				if setting.Class == usbClassHID {
					return true
				}
			}
		}
	}
	return false
}
