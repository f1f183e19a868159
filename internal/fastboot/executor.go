package fastboot

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fbflash/fbflash/internal/archive"
)

// avbCustomKey is the one partition the device refuses to overwrite in
// place, so it's always erased regardless of the wipe policy (spec §4.3,
// GLOSSARY).
const avbCustomKey = "avb_custom_key"

// ExecutorOptions configures a single FlashExecutor run.
type ExecutorOptions struct {
	// Wipe controls whether non-avb_custom_key Erase commands actually
	// run, or are skipped.
	Wipe bool
	// Requirements checks CheckRequirements manifests. May be nil, in
	// which case CheckRequirements commands are a no-op other than
	// resolving their file_ref.
	Requirements Requirements
	// Verifier, if set, is given each Flash command's streamed payload
	// before it reaches the transport.
	Verifier Verifier
	// Reconnect is invoked after every RebootBootloader command. Must be
	// set if the plan contains one.
	Reconnect ReconnectCallback
	// Progress receives progress events in non-decreasing Fraction order.
	// May be nil (a no-op sink is substituted).
	Progress ProgressFunc
}

// Executor interprets a Plan against a live FastbootSession (spec §4.3).
// It is single-threaded and cooperative: commands run strictly in order,
// each fully completing before the next begins (spec §5). The device is
// assumed to already be in bootloader mode when Run is called.
type Executor struct {
	archive archive.Archive
	plan    *Plan
	session FastbootSession
	opts    ExecutorOptions
}

// NewExecutor builds an Executor bound to plan, reading file_refs out of a
// and driving session. The session may be replaced mid-run by a reboot.
func NewExecutor(a archive.Archive, plan *Plan, session FastbootSession, opts ExecutorOptions) *Executor {
	if opts.Progress == nil {
		opts.Progress = func(Progress) {}
	}
	return &Executor{archive: a, plan: plan, session: session, opts: opts}
}

// Run walks the plan's commands in order, failing fast on the first error.
// On success the final progress event carries Fraction 1.0 whenever
// TotalFlashBytes > 0.
func (e *Executor) Run(ctx context.Context) error {
	var flashedBytes int64

	for idx, cmd := range e.plan.Commands {
		overall := e.overall(flashedBytes)

		var err error
		switch c := cmd.(type) {
		case CheckRequirements:
			err = e.runCheckRequirements(ctx, c)
		case CheckVar:
			err = e.runCheckVar(ctx, c)
		case Erase:
			err = e.runErase(ctx, c, overall)
		case Flash:
			var flashed int64
			flashed, err = e.runFlash(ctx, c, overall)
			flashedBytes += flashed
		case MaybeCancelSnapshotUpdate:
			err = e.runMaybeCancelSnapshotUpdate(ctx)
		case RebootBootloader:
			err = e.runRebootBootloader(ctx, overall)
		case RunCmd:
			err = e.runRunCmd(ctx, c)
		case ToggleActiveSlot:
			err = e.runToggleActiveSlot(ctx)
		default:
			err = fmt.Errorf("fastboot: unhandled command type %T", cmd)
		}

		if err != nil {
			return &ExecutionError{Index: idx, Command: cmd, Err: err}
		}
	}

	return nil
}

func (e *Executor) overall(flashedBytes int64) float64 {
	if e.plan.TotalFlashBytes == 0 {
		return 0
	}
	return float64(flashedBytes) / float64(e.plan.TotalFlashBytes)
}

func (e *Executor) emit(action, item string, fraction float64) {
	e.opts.Progress(Progress{Action: action, Item: item, Fraction: fraction})
}

func (e *Executor) runCheckRequirements(ctx context.Context, c CheckRequirements) error {
	entry, ok := e.archive.Find(c.FileRef)
	if !ok {
		return &MissingEntryError{FileRef: c.FileRef}
	}
	reader, err := archive.NewStreamingEntryReader(e.archive, entry)
	if err != nil {
		return &TransportError{Err: err}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return &TransportError{Err: err}
	}
	if e.opts.Requirements == nil {
		return nil
	}
	if err := e.opts.Requirements.Check(ctx, string(data), e.session); err != nil {
		return &RequirementsFailedError{Detail: err.Error()}
	}
	return nil
}

func (e *Executor) runCheckVar(ctx context.Context, c CheckVar) error {
	actual, ok, err := e.session.GetVar(ctx, c.Name)
	if err != nil {
		return &TransportError{Err: err}
	}
	if !ok || actual != c.Expected {
		return &VarMismatchError{Name: c.Name, Expected: c.Expected, Actual: actual}
	}
	return nil
}

func (e *Executor) runErase(ctx context.Context, c Erase, overall float64) error {
	e.emit("wipe", c.Partition, overall)
	if !e.opts.Wipe && c.Partition != avbCustomKey {
		return nil
	}
	if err := e.session.Erase(ctx, c.Partition); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func (e *Executor) runFlash(ctx context.Context, c Flash, overall float64) (int64, error) {
	entry, ok := e.archive.Find(c.FileRef)
	if !ok {
		return 0, &MissingEntryError{FileRef: c.FileRef}
	}

	reader, err := archive.NewStreamingEntryReader(e.archive, entry)
	if err != nil {
		return 0, &TransportError{Err: err}
	}

	if e.opts.Verifier != nil {
		if err := e.opts.Verifier.Verify(ctx, c.Partition, reader); err != nil {
			return 0, err
		}
		// Verification consumed the reader; rebuild it for the actual
		// flash (re-decoding is cheap for stored entries, the common
		// case spec §4.4 optimizes for).
		reader, err = archive.NewStreamingEntryReader(e.archive, entry)
		if err != nil {
			return 0, &TransportError{Err: err}
		}
	}

	var share float64
	if e.plan.TotalFlashBytes > 0 {
		share = float64(entry.UncompressedSize) / float64(e.plan.TotalFlashBytes)
	}

	chunkSize, err := e.maxDownloadSize(ctx)
	if err != nil {
		return 0, err
	}

	err = e.session.Flash(ctx, c.Partition, c.Slot, reader, entry.UncompressedSize, chunkSize, func(frac float32) {
		e.emit("flash", c.FileRef, overall+float64(frac)*share)
	})
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	return entry.UncompressedSize, nil
}

// maxDownloadSize queries the device's reported max-download-size (spec
// §4.3) and returns it as a chunk size for the transport's ChunkedWriter.
// Returns 0 if the device doesn't report one, leaving the transport free
// to fall back to its own default.
func (e *Executor) maxDownloadSize(ctx context.Context) (int64, error) {
	value, ok, err := e.session.GetVar(ctx, "max-download-size")
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	if !ok || value == "" {
		return 0, nil
	}
	size, err := strconv.ParseInt(value, 0, 64)
	if err != nil || size <= 0 {
		return 0, nil
	}
	return size, nil
}

func (e *Executor) runMaybeCancelSnapshotUpdate(ctx context.Context) error {
	status, ok, err := e.session.GetVar(ctx, "snapshot-update-status")
	if err != nil {
		return &TransportError{Err: err}
	}
	if !ok || status == "none" {
		return nil
	}
	if err := e.session.Run(ctx, "snapshot-update:cancel"); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func (e *Executor) runRebootBootloader(ctx context.Context, overall float64) error {
	e.emit("reboot", "device", overall)
	if err := e.session.Run(ctx, "reboot-bootloader"); err != nil {
		return &TransportError{Err: err}
	}
	if e.opts.Reconnect == nil {
		return nil
	}
	session, err := e.opts.Reconnect(ctx)
	if err != nil {
		return &TransportError{Err: err}
	}
	e.session = session
	return nil
}

func (e *Executor) runRunCmd(ctx context.Context, c RunCmd) error {
	if err := e.session.Run(ctx, c.Raw); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func (e *Executor) runToggleActiveSlot(ctx context.Context) error {
	current, ok, err := e.session.GetVar(ctx, "current-slot")
	if err != nil {
		return &TransportError{Err: err}
	}
	if !ok {
		return &UnknownSlotError{Value: ""}
	}
	other, err := OtherSlot(current)
	if err != nil {
		return err
	}
	if err := e.session.Run(ctx, "set_active:"+other); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}
