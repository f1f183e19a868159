// Package hostfastboot implements fastboot.FastbootSession by shelling out
// to a system-installed fastboot binary, generalizing the teacher's
// pwsh-specific process executor to an arbitrary external command.
package hostfastboot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fbflash/fbflash/internal/fastboot"
)

const DefaultTimeout = 5 * time.Minute

var (
	ErrBinaryNotFound = errors.New("fastboot binary not found on PATH")
	ErrTimeout        = errors.New("fastboot command timed out")
	ErrExecution      = errors.New("fastboot command failed")
)

// Session drives a single device, addressed by serial, via the "fastboot"
// binary resolved from PATH (or an explicit path passed to New).
type Session struct {
	binary  string
	serial  string
	timeout time.Duration
}

// New resolves the fastboot binary (binaryPath, or "fastboot" from PATH if
// empty) and binds a session to the device with the given serial.
func New(binaryPath, serial string, timeout time.Duration) (*Session, error) {
	if binaryPath == "" {
		binaryPath = "fastboot"
	}
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, ErrBinaryNotFound
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Session{binary: resolved, serial: serial, timeout: timeout}, nil
}

func (s *Session) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fullArgs := append([]string{"-s", s.serial}, args...)
	cmd := exec.CommandContext(ctx, s.binary, fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ErrTimeout
	}
	if err != nil {
		combined := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
		if combined != "" {
			return "", fmt.Errorf("%w: %s", ErrExecution, combined)
		}
		return "", fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return strings.TrimSpace(stdout.String() + stderr.String()), nil
}

// GetVar issues "fastboot getvar <name>" and parses its "name: value" line.
// fastboot prints the result to stderr; an unsupported variable typically
// comes back as the literal string "unknown" or an empty value.
func (s *Session) GetVar(ctx context.Context, name string) (string, bool, error) {
	out, err := s.run(ctx, "getvar", name)
	if err != nil {
		return "", false, err
	}
	for _, line := range strings.Split(out, "\n") {
		prefix := name + ":"
		if strings.HasPrefix(line, prefix) {
			value := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			if value == "" || value == "unknown" {
				return "", false, nil
			}
			return value, true, nil
		}
	}
	return "", false, nil
}

// Run splits raw on whitespace and hands the resulting tokens to the
// fastboot binary as positional arguments, so "oem unlock" runs
// "fastboot oem unlock" and "reboot-bootloader" runs "fastboot
// reboot-bootloader". Runs of whitespace inside raw are not preserved.
func (s *Session) Run(ctx context.Context, raw string) error {
	_, err := s.run(ctx, strings.Fields(raw)...)
	return err
}

// Erase issues "fastboot erase <partition>".
func (s *Session) Erase(ctx context.Context, partition string) error {
	_, err := s.run(ctx, "erase", partition)
	return err
}

// Flash spools stream to a temporary file (the fastboot binary only accepts
// file paths, not stdin, for flash payloads), then issues "fastboot flash
// [--slot other] <partition> <tmpfile>". Progress is reported against the
// spool phase, which dominates wall-clock time for large images. chunkSize
// is ignored: the fastboot binary does its own wire chunking once handed a
// file path, so there is nothing for this transport to size.
func (s *Session) Flash(ctx context.Context, partition string, slot fastboot.Slot, stream io.Reader, size int64, chunkSize int64, progress func(frac float32)) error {
	tmp, err := os.CreateTemp("", "fbflash-*.img")
	if err != nil {
		return fmt.Errorf("spool file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	if err := copyWithProgress(tmp, stream, size, progress); err != nil {
		return fmt.Errorf("spool image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("spool image: %w", err)
	}

	args := []string{"flash"}
	if slot == fastboot.SlotOther {
		args = append(args, "--slot", "other")
	}
	args = append(args, partition, tmpPath)

	_, err = s.run(ctx, args...)
	if err == nil {
		progress(1)
	}
	return err
}

func copyWithProgress(dst io.Writer, src io.Reader, size int64, progress func(frac float32)) error {
	buf := make([]byte, 1<<20)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if size > 0 {
				progress(float32(written) / float32(size))
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}
