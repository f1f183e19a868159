package usb

import (
	"context"
	"sync"

	"github.com/google/gousb"
	"golang.org/x/sync/errgroup"
)

// Enumerator lists USB devices currently presenting the fastboot interface.
type Enumerator struct {
	ctx *gousb.Context
}

// NewEnumerator opens a libusb context. Callers must call Close when done.
func NewEnumerator() *Enumerator {
	return &Enumerator{ctx: gousb.NewContext()}
}

// Close releases the underlying libusb context.
func (e *Enumerator) Close() error {
	return e.ctx.Close()
}

// ListDevices walks every attached USB device, keeping the ones that
// expose a fastboot interface, and reads each one's string descriptors in
// parallel (mirroring the concurrent fan-out the teacher used for its
// native device queries, here applied to descriptor reads instead of WMI
// classes).
func (e *Enumerator) ListDevices() ([]Device, error) {
	candidates, err := e.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return hasFastbootInterface(desc)
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, d := range candidates {
			d.Close()
		}
	}()

	results := make([]Device, len(candidates))
	g, _ := errgroup.WithContext(context.Background())
	var mu sync.Mutex

	for i, d := range candidates {
		i, d := i, d
		g.Go(func() error {
			dev := deviceFromHandle(d)
			mu.Lock()
			results[i] = dev
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func hasFastbootInterface(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == fastbootInterfaceClass &&
					alt.SubClass == fastbootInterfaceSubclass &&
					alt.Protocol == fastbootInterfaceProtocol {
					return true
				}
			}
		}
	}
	return false
}

func deviceFromHandle(d *gousb.Device) Device {
	serial, _ := d.SerialNumber()
	manufacturer, _ := d.Manufacturer()
	product, _ := d.Product()
	return Device{
		Serial:       serial,
		VendorID:     uint16(d.Desc.Vendor),
		ProductID:    uint16(d.Desc.Product),
		Manufacturer: manufacturer,
		Product:      product,
	}
}
