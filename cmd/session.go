package cmd

import (
	"fmt"
	"time"

	"github.com/fbflash/fbflash/internal/fastboot"
	"github.com/fbflash/fbflash/internal/hostfastboot"
	"github.com/fbflash/fbflash/internal/usb"
	"github.com/google/gousb"
)

var (
	transport      string
	fastbootBinary string
)

// openSession binds a FastbootSession to serial using the --transport flag
// ("host", the default, shells out to a system fastboot binary; "usb"
// drives the device's bulk endpoints directly).
func openSession(serial string) (fastboot.FastbootSession, func(), error) {
	switch transport {
	case "", "host":
		s, err := hostfastboot.New(fastbootBinary, serial, 5*time.Minute)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "usb":
		ctx := gousb.NewContext()
		dev, err := findUSBDevice(ctx, serial)
		if err != nil {
			ctx.Close()
			return nil, nil, err
		}
		sess, err := usb.Open(dev)
		if err != nil {
			dev.Close()
			ctx.Close()
			return nil, nil, err
		}
		return sess, func() { sess.Close(); ctx.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q (want \"host\" or \"usb\")", transport)
	}
}

func findUSBDevice(ctx *gousb.Context, serial string) (*gousb.Device, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool { return true })
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		s, _ := d.SerialNumber()
		if s == serial {
			for _, other := range devs {
				if other != d {
					other.Close()
				}
			}
			return d, nil
		}
	}
	for _, d := range devs {
		d.Close()
	}
	return nil, fmt.Errorf("no USB device with serial %q", serial)
}
