package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fbflash/fbflash/internal/acquire"
	"github.com/fbflash/fbflash/internal/archive"
	"github.com/fbflash/fbflash/internal/devicelock"
	"github.com/fbflash/fbflash/internal/fastboot"
	"github.com/fbflash/fbflash/internal/output"
	"github.com/fbflash/fbflash/internal/requirements"
	"github.com/fbflash/fbflash/internal/usb"
	"github.com/fbflash/fbflash/internal/verify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	flashWipe bool
	flashYes  bool
)

var flashCmd = &cobra.Command{
	Use:   "flash <archive> <serial>",
	Short: "Run a flash archive's script against a device",
	Long: `Parses the archive's script.txt into a command plan and drives it
against the device identified by serial, one command at a time.

WARNING: with --wipe, this erases user data partitions.`,
	Example: `  fbflash flash firmware.zip R58N90ABCDE
  fbflash flash firmware.zip R58N90ABCDE --wipe --yes
  fbflash flash https://example.com/firmware.zip R58N90ABCDE --json`,
	Args: cobra.ExactArgs(2),
	RunE: runFlash,
}

func init() {
	flashCmd.Flags().BoolVar(&flashWipe, "wipe", false, "Allow erase commands to actually wipe data")
	flashCmd.Flags().BoolVarP(&flashYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	archivePath, serial := args[0], args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if !jsonOutput {
			pterm.Warning.Println("\nCancelling... (waiting for current command)")
		}
		cancel()
	}()

	devLock, err := devicelock.New(serial)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeInternalError)
		return err
	}
	if err := devLock.TryLock(ctx, 2*time.Second); err != nil {
		PrintError(err.Error(), output.ErrCodeDeviceBusy)
		return err
	}
	defer devLock.Unlock()

	localPath, cleanup, err := acquire.Resolve(ctx, archivePath)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeInvalidInput)
		return err
	}
	defer cleanup()

	a, err := archive.Open(localPath)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeValidateFailed)
		return err
	}
	defer a.Close()

	commands, err := fastboot.ParseScript(a)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeValidateFailed)
		return err
	}
	plan, err := fastboot.NewPlan(commands, a)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeValidateFailed)
		return err
	}

	if !flashYes && !jsonOutput {
		pterm.Warning.Printf("About to run %d commands against device %s (%s bytes to flash)\n",
			len(plan.Commands), serial, usb.FormatSize(plan.TotalFlashBytes))
		if flashWipe {
			pterm.Warning.Println("--wipe is set: erase commands will run for real")
		}
		confirmed, _ := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show("Continue?")
		if !confirmed {
			pterm.Info.Println("Flash cancelled")
			return nil
		}
	}

	session, closeSession, err := openSession(serial)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeBinaryNotFound)
		return err
	}
	defer func() { closeSession() }()

	progressCh := make(chan fastboot.Progress, 16)
	executor := fastboot.NewExecutor(a, plan, session, fastboot.ExecutorOptions{
		Wipe:         flashWipe,
		Requirements: requirements.Checker{},
		Verifier:     verify.NoopVerifier{},
		Reconnect: func(ctx context.Context) (fastboot.FastbootSession, error) {
			closeSession()
			s, closeFn, err := reconnect(ctx, serial)
			closeSession = closeFn
			return s, err
		},
		Progress: func(p fastboot.Progress) { progressCh <- p },
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- executor.Run(ctx)
		close(progressCh)
	}()

	if jsonOutput {
		for p := range progressCh {
			data, _ := json.Marshal(p)
			fmt.Println(string(data))
		}
	} else {
		spinner, _ := pterm.DefaultSpinner.Start("Starting...")
		for p := range progressCh {
			spinner.UpdateText(fmt.Sprintf("%s %s (%.0f%%)", p.Action, p.Item, p.Fraction*100))
		}
		if err := <-errCh; err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("Flash complete")
		return nil
	}

	if err := <-errCh; err != nil {
		PrintError(err.Error(), output.ErrCodeFlashFailed)
		return err
	}
	return nil
}

// reconnect waits for the device to reappear under serial after a
// bootloader reboot and rebinds a session to it.
func reconnect(ctx context.Context, serial string) (fastboot.FastbootSession, func(), error) {
	deadline := time.Now().Add(30 * time.Second)
	for {
		session, closeFn, err := openSession(serial)
		if err == nil {
			return session, closeFn, nil
		}
		if time.Now().After(deadline) {
			return nil, nil, fmt.Errorf("device %s did not reappear after reboot: %w", serial, err)
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
}
