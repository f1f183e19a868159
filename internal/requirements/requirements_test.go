package requirements

import (
	"context"
	"io"
	"testing"

	"github.com/fbflash/fbflash/internal/fastboot"
)

// fakeSession is a minimal fastboot.FastbootSession backed by a fixed
// getvar table; Run/Erase/Flash are unused by Checker.Check.
type fakeSession struct {
	vars map[string]string
}

func (s fakeSession) GetVar(ctx context.Context, name string) (string, bool, error) {
	v, ok := s.vars[name]
	return v, ok, nil
}

func (s fakeSession) Run(ctx context.Context, raw string) error { return nil }

func (s fakeSession) Erase(ctx context.Context, partition string) error { return nil }

func (s fakeSession) Flash(ctx context.Context, partition string, slot fastboot.Slot, stream io.Reader, size int64, chunkSize int64, progress func(float32)) error {
	return nil
}

func TestCheckerCheckPasses(t *testing.T) {
	session := fakeSession{vars: map[string]string{"product": "coral", "variant": "user"}}
	manifest := "require product=coral|flame\nrequire variant=user\n"

	if err := (Checker{}).Check(context.Background(), manifest, session); err != nil {
		t.Fatal(err)
	}
}

func TestCheckerCheckRejectsMismatch(t *testing.T) {
	session := fakeSession{vars: map[string]string{"product": "unknown-device"}}
	manifest := "require product=coral|flame\n"

	if err := (Checker{}).Check(context.Background(), manifest, session); err == nil {
		t.Fatal("expected error for mismatched product")
	}
}

func TestCheckerCheckRejectsUnreportedVar(t *testing.T) {
	session := fakeSession{vars: map[string]string{}}
	manifest := "require product=coral\n"

	if err := (Checker{}).Check(context.Background(), manifest, session); err == nil {
		t.Fatal("expected error when device does not report the variable")
	}
}

func TestParseValidManifest(t *testing.T) {
	text := "# header comment\nrequire product=coral|flame\nrequire variant=user\n\n"
	m, err := Parse(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.checks) != 2 {
		t.Fatalf("got %d checks, want 2", len(m.checks))
	}
	if m.checks[0].variable != "product" || len(m.checks[0].values) != 2 {
		t.Errorf("checks[0] = %#v", m.checks[0])
	}
}

func TestParseMalformedLine(t *testing.T) {
	cases := []string{
		"product=coral\n",
		"require product\n",
		"require =coral\n",
		"require product=\n",
	}
	for _, text := range cases {
		if _, err := Parse(text); err == nil {
			t.Errorf("text %q: expected error, got nil", text)
		}
	}
}

func TestContains(t *testing.T) {
	if !contains([]string{"a", "b"}, "b") {
		t.Error("contains should find b")
	}
	if contains([]string{"a", "b"}, "c") {
		t.Error("contains should not find c")
	}
}
