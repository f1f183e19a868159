package cmd

import (
	"context"
	"fmt"

	"github.com/fbflash/fbflash/internal/output"
	"github.com/fbflash/fbflash/internal/usb"
	"github.com/spf13/cobra"
)

// commonInfoVars is queried on every "info" call; additional variables can
// be fetched individually with "getvar".
var commonInfoVars = []string{"product", "variant", "current-slot", "slot-count", "unlocked"}

var infoCmd = &cobra.Command{
	Use:   "info <serial>",
	Short: "Show detailed information for a fastboot device",
	Long:  `Display device descriptor fields plus a handful of common getvar values.`,
	Example: `  fbflash info R58N90ABCDE
  fbflash info R58N90ABCDE --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	serial := args[0]

	enum := usb.NewEnumerator()
	defer enum.Close()

	devices, err := enum.ListDevices()
	if err != nil {
		PrintError(err.Error(), output.ErrCodeUSBNotFound)
		return err
	}
	var device *usb.Device
	for i := range devices {
		if devices[i].Serial == serial {
			device = &devices[i]
			break
		}
	}
	if device == nil {
		err := fmt.Errorf("no fastboot device with serial %q", serial)
		PrintError(err.Error(), output.ErrCodeUSBNotFound)
		return err
	}

	session, closeSession, err := openSession(serial)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeBinaryNotFound)
		return err
	}
	defer closeSession()

	ctx := context.Background()
	vars := map[string]string{}
	for _, name := range commonInfoVars {
		if value, ok, err := session.GetVar(ctx, name); err == nil && ok {
			vars[name] = value
		}
	}

	if jsonOutput {
		return output.PrintJSON(struct {
			usb.Device
			Vars map[string]string `json:"vars"`
		}{Device: *device, Vars: vars})
	}

	output.PrintDeviceInfo(*device, vars)
	return nil
}
