// Package fastboot is the flash driver core: it interprets a FlashPlan
// parsed from an "optimized factory" archive against a live FastbootSession.
// It never touches USB or a zip central directory directly — those are the
// archive.Archive and FastbootSession collaborators.
package fastboot

// Slot names the A/B slot a Flash command targets.
type Slot int

const (
	// SlotCurrent flashes the device's currently active slot.
	SlotCurrent Slot = iota
	// SlotOther flashes the device's inactive slot.
	SlotOther
)

func (s Slot) String() string {
	if s == SlotOther {
		return "other"
	}
	return "current"
}

// OtherSlot maps a device's reported current-slot value to its complement.
// "other" is never a valid wire argument (spec §6 — the wire only ever
// speaks "a"/"b"), so resolving SlotOther always goes through this.
func OtherSlot(current string) (string, error) {
	switch current {
	case "a":
		return "b", nil
	case "b":
		return "a", nil
	default:
		return "", &UnknownSlotError{Value: current}
	}
}

// Command is a parsed script.txt line. It is a sealed interface: every
// variant lives in this file, and FlashExecutor's type switch over Command
// is expected to be exhaustive (spec §9 — sum type standing in for a
// compiler-checked tagged union).
type Command interface {
	isCommand()
}

// CheckRequirements reads FileRef as UTF-8 text and hands it to the
// Requirements collaborator for comparison against device-reported
// identifiers.
type CheckRequirements struct {
	FileRef string
}

// CheckVar issues getvar Name and compares the result against Expected,
// byte-exact.
type CheckVar struct {
	Name     string
	Expected string
}

// Erase issues erase:Partition, subject to the executor's wipe policy.
type Erase struct {
	Partition string
}

// Flash streams FileRef to Partition on the given Slot.
type Flash struct {
	Partition string
	FileRef   string
	Slot      Slot
}

// MaybeCancelSnapshotUpdate cancels an in-progress snapshot update, if the
// device reports one and supports the mechanism at all.
type MaybeCancelSnapshotUpdate struct{}

// RebootBootloader reboots the device into the bootloader and waits for
// reconnection via the executor's ReconnectCallback.
type RebootBootloader struct{}

// RunCmd passes Raw through to the transport verbatim, no escaping.
type RunCmd struct {
	Raw string
}

// ToggleActiveSlot flips the device's active A/B slot.
type ToggleActiveSlot struct{}

func (CheckRequirements) isCommand()         {}
func (CheckVar) isCommand()                  {}
func (Erase) isCommand()                     {}
func (Flash) isCommand()                     {}
func (MaybeCancelSnapshotUpdate) isCommand() {}
func (RebootBootloader) isCommand()          {}
func (RunCmd) isCommand()                    {}
func (ToggleActiveSlot) isCommand()          {}
