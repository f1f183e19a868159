package cmd

import (
	"context"

	"github.com/fbflash/fbflash/internal/output"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rebootYes bool

var rebootCmd = &cobra.Command{
	Use:   "reboot <serial>",
	Short: "Reboot a fastboot device out of the bootloader",
	Long: `Issues a plain reboot, outside of any flash script. Use this to
back a device out of fastboot mode without running a flash.`,
	Example: `  fbflash reboot R58N90ABCDE
  fbflash reboot R58N90ABCDE --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runReboot,
}

func init() {
	rebootCmd.Flags().BoolVarP(&rebootYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(rebootCmd)
}

func runReboot(cmd *cobra.Command, args []string) error {
	serial := args[0]

	if !rebootYes && !jsonOutput {
		confirmed, _ := pterm.DefaultInteractiveConfirm.
			WithDefaultValue(true).
			Show("Reboot device " + serial + "?")
		if !confirmed {
			pterm.Info.Println("Reboot cancelled")
			return nil
		}
	}

	session, closeSession, err := openSession(serial)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeBinaryNotFound)
		return err
	}
	defer closeSession()

	if err := session.Run(context.Background(), "reboot"); err != nil {
		PrintError(err.Error(), output.ErrCodeInternalError)
		return err
	}

	if jsonOutput {
		return output.PrintJSON(map[string]interface{}{"success": true, "serial": serial})
	}
	pterm.Success.Printf("Rebooted %s\n", serial)
	return nil
}
