package usb

import (
	"context"
	"fmt"
	"io"

	"github.com/google/gousb"

	"github.com/fbflash/fbflash/internal/chunkwriter"
	"github.com/fbflash/fbflash/internal/fastboot"
)

// maxResponseSize bounds a single fastboot status-line read; real replies
// are always well under this (protocol limits INFO/FAIL/OKAY lines to 64
// bytes plus the 4-byte tag).
const maxResponseSize = 256

// downloadChunk is the payload size offered per USB write when the device
// hasn't reported a max-download-size (4 MiB matches common bootloader
// defaults).
const downloadChunk = 4 << 20

// Session implements fastboot.FastbootSession directly over a USB device's
// bulk IN/OUT endpoints, encoding the wire protocol described in Android's
// platform/system/core/fastboot README: 4-byte ASCII status prefixes
// (OKAY/FAIL/DATA/INFO) followed by command-specific payload.
type Session struct {
	dev    *gousb.Device
	intf   *gousb.Interface
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	done   func()
	serial string
}

// Open claims the fastboot interface on dev and returns a ready Session.
func Open(dev *gousb.Device) (*Session, error) {
	serial, _ := dev.SerialNumber()

	cfg, err := dev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("usb: select config: %w", err)
	}

	var intf *gousb.Interface
	var done func()
	for _, ifDesc := range cfg.Desc.Interfaces {
		for _, alt := range ifDesc.AltSettings {
			if alt.Class == fastbootInterfaceClass &&
				alt.SubClass == fastbootInterfaceSubclass &&
				alt.Protocol == fastbootInterfaceProtocol {
				claimed, errClaim := cfg.Interface(ifDesc.Number, alt.Number)
				if errClaim != nil {
					cfg.Close()
					return nil, fmt.Errorf("usb: claim interface: %w", errClaim)
				}
				intf = claimed
				done = func() { claimed.Close(); cfg.Close() }
			}
		}
	}
	if intf == nil {
		cfg.Close()
		return nil, fmt.Errorf("usb: device %s has no fastboot interface", serial)
	}

	var in *gousb.InEndpoint
	var out *gousb.OutEndpoint
	for _, epDesc := range intf.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionIn {
			ep, err := intf.InEndpoint(epDesc.Number)
			if err == nil {
				in = ep
			}
		} else {
			ep, err := intf.OutEndpoint(epDesc.Number)
			if err == nil {
				out = ep
			}
		}
	}
	if in == nil || out == nil {
		done()
		return nil, fmt.Errorf("usb: device %s missing bulk endpoints", serial)
	}

	return &Session{dev: dev, intf: intf, in: in, out: out, done: done, serial: serial}, nil
}

// Close releases the claimed interface and device handle.
func (s *Session) Close() error {
	if s.done != nil {
		s.done()
	}
	return s.dev.Close()
}

func (s *Session) sendCommand(ctx context.Context, cmd string) error {
	_, err := s.out.WriteContext(ctx, []byte(cmd))
	return err
}

// readResponse reads status lines until an OKAY, FAIL or DATA line and
// returns that line's status and payload. INFO lines are read and
// discarded; their text is not returned.
func (s *Session) readResponse(ctx context.Context) (status, payload string, err error) {
	buf := make([]byte, maxResponseSize)
	for {
		n, err := s.in.ReadContext(ctx, buf)
		if err != nil {
			return "", "", err
		}
		if n < 4 {
			return "", "", fmt.Errorf("usb: short response (%d bytes)", n)
		}
		prefix := string(buf[:4])
		rest := string(buf[4:n])
		switch prefix {
		case "OKAY":
			return prefix, rest, nil
		case "FAIL":
			return prefix, rest, nil
		case "DATA":
			return prefix, rest, nil
		case "INFO":
			continue
		default:
			return "", "", fmt.Errorf("usb: unexpected response prefix %q", prefix)
		}
	}
}

func (s *Session) transact(ctx context.Context, cmd string) (payload string, err error) {
	if err := s.sendCommand(ctx, cmd); err != nil {
		return "", err
	}
	status, payload, err := s.readResponse(ctx)
	if err != nil {
		return "", err
	}
	if status == "FAIL" {
		return "", fmt.Errorf("usb: device reported FAIL: %s", payload)
	}
	return payload, nil
}

// GetVar implements fastboot.FastbootSession.
func (s *Session) GetVar(ctx context.Context, name string) (string, bool, error) {
	payload, err := s.transact(ctx, "getvar:"+name)
	if err != nil {
		return "", false, err
	}
	if payload == "" || payload == "unknown" {
		return "", false, nil
	}
	return payload, true, nil
}

// Run implements fastboot.FastbootSession.
func (s *Session) Run(ctx context.Context, raw string) error {
	_, err := s.transact(ctx, raw)
	return err
}

// Erase implements fastboot.FastbootSession.
func (s *Session) Erase(ctx context.Context, partition string) error {
	_, err := s.transact(ctx, "erase:"+partition)
	return err
}

// Flash implements fastboot.FastbootSession by issuing download: up front
// for the declared size, streaming the image straight from stream onto the
// wire in chunkSize pieces, then flash:<partition>, per the fastboot wire
// protocol's download-then-flash handshake. The image is never
// materialized in memory: each chunk read from stream is written to the
// bulk OUT endpoint as it arrives.
func (s *Session) Flash(ctx context.Context, partition string, slot fastboot.Slot, stream io.Reader, size int64, chunkSize int64, progress func(frac float32)) error {
	if slot == fastboot.SlotOther {
		current, ok, err := s.GetVar(ctx, "current-slot")
		if err != nil {
			return fmt.Errorf("usb: query current-slot: %w", err)
		}
		if !ok {
			return fmt.Errorf("usb: device did not report current-slot")
		}
		other, err := fastboot.OtherSlot(current)
		if err != nil {
			return fmt.Errorf("usb: %w", err)
		}
		if _, err := s.transact(ctx, "set_active:"+other); err != nil {
			return fmt.Errorf("usb: select other slot: %w", err)
		}
	}

	if chunkSize <= 0 {
		chunkSize = downloadChunk
	}

	if _, err := s.transact(ctx, fmt.Sprintf("download:%08x", size)); err != nil {
		return fmt.Errorf("usb: download handshake: %w", err)
	}

	var sent int64
	cw := chunkwriter.New(chunkSize, size, func(chunk []byte) error {
		if _, err := s.out.WriteContext(ctx, chunk); err != nil {
			return err
		}
		sent += int64(len(chunk))
		if size > 0 {
			progress(float32(sent) / float32(size))
		}
		return nil
	})
	if err := cw.Init(size); err != nil {
		return fmt.Errorf("usb: %w", err)
	}
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(cw, stream, buf); err != nil {
		return fmt.Errorf("usb: stream image: %w", err)
	}
	if delivered := cw.Finish(); delivered != size {
		return fmt.Errorf("usb: image size mismatch: declared %d, streamed %d", size, delivered)
	}

	if _, _, err := s.readResponse(ctx); err != nil {
		return fmt.Errorf("usb: await download completion: %w", err)
	}

	if _, err := s.transact(ctx, "flash:"+partition); err != nil {
		return fmt.Errorf("usb: flash:%s: %w", partition, err)
	}
	progress(1)
	return nil
}
