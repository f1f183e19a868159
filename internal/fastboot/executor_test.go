package fastboot

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/fbflash/fbflash/internal/archive"
)

// fakeSession is an in-memory FastbootSession test double. vars holds the
// getvar table; calls records every Run/Erase/Flash invocation in order so
// tests can assert on wipe-gating and slot-toggle behavior.
type fakeSession struct {
	vars       map[string]string
	calls      []string
	flashed    map[string]int64
	reconnects int
}

func newFakeSession(vars map[string]string) *fakeSession {
	return &fakeSession{vars: vars, flashed: make(map[string]int64)}
}

func (s *fakeSession) GetVar(ctx context.Context, name string) (string, bool, error) {
	v, ok := s.vars[name]
	return v, ok, nil
}

func (s *fakeSession) Run(ctx context.Context, raw string) error {
	s.calls = append(s.calls, "run:"+raw)
	return nil
}

func (s *fakeSession) Erase(ctx context.Context, partition string) error {
	s.calls = append(s.calls, "erase:"+partition)
	return nil
}

func (s *fakeSession) Flash(ctx context.Context, partition string, slot Slot, stream io.Reader, size int64, chunkSize int64, progress func(float32)) error {
	n, err := io.Copy(io.Discard, stream)
	if err != nil {
		return err
	}
	s.calls = append(s.calls, "flash:"+partition+":"+slot.String())
	s.flashed[partition] = n
	progress(1)
	return nil
}

func entryArchive(entries ...archive.Entry) *fakeArchive {
	return &fakeArchive{entries: entries}
}

func TestExecutorWipeGating(t *testing.T) {
	session := newFakeSession(nil)
	plan := &Plan{Commands: []Command{
		Erase{Partition: "userdata"},
		Erase{Partition: avbCustomKey},
	}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{Wipe: false})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{"erase:" + avbCustomKey}
	if len(session.calls) != len(want) || session.calls[0] != want[0] {
		t.Errorf("calls = %v, want %v (userdata erase should be skipped without --wipe)", session.calls, want)
	}
}

func TestExecutorWipeEnabled(t *testing.T) {
	session := newFakeSession(nil)
	plan := &Plan{Commands: []Command{Erase{Partition: "userdata"}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{Wipe: true})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(session.calls) != 1 || session.calls[0] != "erase:userdata" {
		t.Errorf("calls = %v, want [erase:userdata]", session.calls)
	}
}

func TestExecutorFlashProgressMonotonic(t *testing.T) {
	a := entryArchive(
		archive.Entry{Name: "boot.img", UncompressedSize: 100},
		archive.Entry{Name: "vendor.img", UncompressedSize: 300},
	)
	plan, err := NewPlan([]Command{
		Flash{Partition: "boot", FileRef: "boot.img"},
		Flash{Partition: "vendor", FileRef: "vendor.img"},
	}, a)
	if err != nil {
		t.Fatal(err)
	}

	var fractions []float64
	session := newFakeSession(nil)
	exec := NewExecutor(a, plan, session, ExecutorOptions{
		Progress: func(p Progress) { fractions = append(fractions, p.Fraction) },
	})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress fraction decreased: %v", fractions)
		}
	}
	last := fractions[len(fractions)-1]
	if last != 1.0 {
		t.Errorf("final fraction = %v, want 1.0", last)
	}
}

func TestExecutorZeroTotalFlashBytesProgress(t *testing.T) {
	plan := &Plan{Commands: []Command{ToggleActiveSlot{}}}
	session := newFakeSession(map[string]string{"current-slot": "a"})
	var frac float64
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{
		Progress: func(p Progress) { frac = p.Fraction },
	})
	_ = frac

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exec.overall(0) != 0 {
		t.Errorf("overall() with TotalFlashBytes=0 should be 0, got %v", exec.overall(0))
	}
}

func TestExecutorToggleActiveSlotInvolution(t *testing.T) {
	session := newFakeSession(map[string]string{"current-slot": "a"})
	plan := &Plan{Commands: []Command{ToggleActiveSlot{}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(session.calls) != 1 || session.calls[0] != "run:set_active:b" {
		t.Fatalf("calls = %v, want [run:set_active:b]", session.calls)
	}

	session2 := newFakeSession(map[string]string{"current-slot": "b"})
	exec2 := NewExecutor(entryArchive(), plan, session2, ExecutorOptions{})
	if err := exec2.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if session2.calls[0] != "run:set_active:a" {
		t.Fatalf("calls = %v, want [run:set_active:a]", session2.calls)
	}
}

func TestExecutorToggleActiveSlotUnknown(t *testing.T) {
	session := newFakeSession(map[string]string{"current-slot": "c"})
	plan := &Plan{Commands: []Command{ToggleActiveSlot{}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{})

	err := exec.Run(context.Background())
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v, want *ExecutionError", err)
	}
	if _, ok := execErr.Err.(*UnknownSlotError); !ok {
		t.Fatalf("wrapped err = %v (%T), want *UnknownSlotError", execErr.Err, execErr.Err)
	}
}

func TestExecutorMaybeCancelSnapshotUpdateSkipsWhenNone(t *testing.T) {
	session := newFakeSession(map[string]string{"snapshot-update-status": "none"})
	plan := &Plan{Commands: []Command{MaybeCancelSnapshotUpdate{}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(session.calls) != 0 {
		t.Errorf("calls = %v, want none (status is \"none\")", session.calls)
	}
}

func TestExecutorMaybeCancelSnapshotUpdateCancelsWhenActive(t *testing.T) {
	session := newFakeSession(map[string]string{"snapshot-update-status": "in-progress"})
	plan := &Plan{Commands: []Command{MaybeCancelSnapshotUpdate{}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(session.calls) != 1 || session.calls[0] != "run:snapshot-update:cancel" {
		t.Fatalf("calls = %v, want [run:snapshot-update:cancel]", session.calls)
	}
}

func TestExecutorRebootReconnect(t *testing.T) {
	session1 := newFakeSession(nil)
	session2 := newFakeSession(map[string]string{"current-slot": "a"})
	plan := &Plan{Commands: []Command{RebootBootloader{}, ToggleActiveSlot{}}}

	reconnectCalled := false
	exec := NewExecutor(entryArchive(), plan, session1, ExecutorOptions{
		Reconnect: func(ctx context.Context) (FastbootSession, error) {
			reconnectCalled = true
			return session2, nil
		},
	})

	if err := exec.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reconnectCalled {
		t.Fatal("Reconnect was not invoked after RebootBootloader")
	}
	if len(session2.calls) != 1 || session2.calls[0] != "run:set_active:b" {
		t.Fatalf("post-reboot command ran against the wrong session: %v", session2.calls)
	}
}

func TestExecutorCheckVarMismatch(t *testing.T) {
	session := newFakeSession(map[string]string{"product": "actual"})
	plan := &Plan{Commands: []Command{CheckVar{Name: "product", Expected: "expected"}}}
	exec := NewExecutor(entryArchive(), plan, session, ExecutorOptions{})

	err := exec.Run(context.Background())
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v, want *ExecutionError", err)
	}
	if _, ok := execErr.Err.(*VarMismatchError); !ok {
		t.Fatalf("wrapped err = %v (%T), want *VarMismatchError", execErr.Err, execErr.Err)
	}
}

type rejectingRequirements struct{ detail string }

func (r rejectingRequirements) Check(ctx context.Context, manifest string, session FastbootSession) error {
	return errors.New(r.detail)
}

func TestExecutorCheckRequirementsFailure(t *testing.T) {
	a := entryArchive(archive.Entry{Name: "requirements.txt", UncompressedSize: 0})
	plan := &Plan{Commands: []Command{CheckRequirements{FileRef: "requirements.txt"}}}
	session := newFakeSession(nil)
	exec := NewExecutor(a, plan, session, ExecutorOptions{
		Requirements: rejectingRequirements{detail: "wrong product"},
	})

	err := exec.Run(context.Background())
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("got %v, want *ExecutionError", err)
	}
	reqErr, ok := execErr.Err.(*RequirementsFailedError)
	if !ok {
		t.Fatalf("wrapped err = %v (%T), want *RequirementsFailedError", execErr.Err, execErr.Err)
	}
	if reqErr.Detail != "wrong product" {
		t.Errorf("Detail = %q, want %q", reqErr.Detail, "wrong product")
	}
}
