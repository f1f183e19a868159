package cmd

import (
	"github.com/fbflash/fbflash/internal/output"
	"github.com/fbflash/fbflash/internal/usb"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected fastboot-mode devices",
	Long:  `List every USB device currently presenting a fastboot interface.`,
	Example: `  fbflash list
  fbflash list --json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	enum := usb.NewEnumerator()
	defer enum.Close()

	devices, err := enum.ListDevices()
	if err != nil {
		if jsonOutput {
			output.PrintJSONError(err.Error(), output.ErrCodeUSBNotFound)
		} else {
			PrintError(err.Error(), output.ErrCodeUSBNotFound)
		}
		return err
	}

	if jsonOutput {
		return output.PrintJSON(devices)
	}

	output.PrintDevicesTable(devices)
	return nil
}
