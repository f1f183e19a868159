package fastboot

import (
	"context"
	"io"
)

// FastbootSession is the live device session the executor drives. It is
// consumed, never implemented, by this package: USB framing, command
// encoding and sparse-image chunking belong to a transport package such as
// internal/usb or internal/hostfastboot.
type FastbootSession interface {
	// GetVar issues "getvar name" and reports whether the device returned
	// a value for it at all (an unsupported variable is not an error).
	GetVar(ctx context.Context, name string) (value string, ok bool, err error)
	// Run passes raw through to the device verbatim (e.g. "oem unlock",
	// "set_active:b", "snapshot-update:cancel").
	Run(ctx context.Context, raw string) error
	// Erase issues an erase of partition.
	Erase(ctx context.Context, partition string) error
	// Flash streams size bytes from stream to partition on the given
	// slot, invoking progress with a fraction in [0,1] of that stream as
	// it's consumed. chunkSize is the executor's resolution of the
	// device's reported max-download-size (0 if the device didn't
	// report one); a transport that chunks its wire writes should honor
	// it instead of picking its own constant.
	Flash(ctx context.Context, partition string, slot Slot, stream io.Reader, size int64, chunkSize int64, progress func(frac float32)) error
}

// ReconnectCallback is invoked after a bootloader reboot and must return a
// usable session — possibly the same handle, possibly a new one. It may
// present UI; the executor awaits it.
type ReconnectCallback func(ctx context.Context) (FastbootSession, error)

// Requirements compares a CheckRequirements manifest's contents against
// the live device (product, variant, version ranges, ...). A non-nil
// return value is wrapped in RequirementsFailedError by the executor.
type Requirements interface {
	Check(ctx context.Context, manifest string, session FastbootSession) error
}

// Verifier performs optional cryptographic verification of a partition
// image before it is streamed to the device. The zero value of the
// executor runs with no verifier at all (spec's Verifier is "if present").
type Verifier interface {
	Verify(ctx context.Context, partition string, r io.Reader) error
}

// Progress is one progress event, delivered for wipe/flash/reboot actions
// (spec §6).
type Progress struct {
	Action   string // "wipe", "flash", or "reboot"
	Item     string // partition name, file_ref, or "device"
	Fraction float64
}

// ProgressFunc receives Progress events in non-decreasing Fraction order
// within a run (spec §5).
type ProgressFunc func(Progress)
