package cmd

import (
	"context"
	"fmt"

	"github.com/fbflash/fbflash/internal/acquire"
	"github.com/fbflash/fbflash/internal/archive"
	"github.com/fbflash/fbflash/internal/fastboot"
	"github.com/fbflash/fbflash/internal/output"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <archive>",
	Short: "Parse a flash archive's script without touching a device",
	Long: `Resolves the archive's script.txt into a command plan, reporting the
command list and total_flash_bytes. No device is contacted and nothing
is written; this is a pure dry-run sanity check of the archive itself.`,
	Example: `  fbflash validate firmware.zip
  fbflash validate https://example.com/firmware.zip --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type planSummary struct {
	Commands        []string `json:"commands"`
	TotalFlashBytes int64    `json:"totalFlashBytes"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path, cleanup, err := acquire.Resolve(ctx, args[0])
	if err != nil {
		PrintError(err.Error(), output.ErrCodeInvalidInput)
		return err
	}
	defer cleanup()

	a, err := archive.Open(path)
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

	summary := planSummary{TotalFlashBytes: plan.TotalFlashBytes}
	for _, c := range plan.Commands {
		summary.Commands = append(summary.Commands, describeCommand(c))
	}

	if jsonOutput {
		return output.PrintJSON(summary)
	}

	pterm.DefaultSection.Println("Flash plan")
	for i, line := range summary.Commands {
		pterm.Printf("%3d  %s\n", i, line)
	}
	pterm.Printf("\ntotal_flash_bytes: %d\n", summary.TotalFlashBytes)
	return nil
}

func describeCommand(c fastboot.Command) string {
	switch v := c.(type) {
	case fastboot.CheckRequirements:
		return fmt.Sprintf("check-requirements %s", v.FileRef)
	case fastboot.CheckVar:
		return fmt.Sprintf("check-var %s %s", v.Name, v.Expected)
	case fastboot.Erase:
		return fmt.Sprintf("erase %s", v.Partition)
	case fastboot.Flash:
		if v.Slot == fastboot.SlotOther {
			return fmt.Sprintf("flash %s %s other-slot", v.Partition, v.FileRef)
		}
		return fmt.Sprintf("flash %s %s", v.Partition, v.FileRef)
	case fastboot.MaybeCancelSnapshotUpdate:
		return "maybe-cancel-snapshot-update"
	case fastboot.RebootBootloader:
		return "reboot-bootloader"
	case fastboot.RunCmd:
		return fmt.Sprintf("run-cmd %s", v.Raw)
	case fastboot.ToggleActiveSlot:
		return "toggle-active-slot"
	default:
		return fmt.Sprintf("%T", c)
	}
}
