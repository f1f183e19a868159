package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool
	noColor    bool

	// Version info (set via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fbflash",
	Short: "Fastboot firmware flashing toolkit",
	Long: `fbflash drives Android devices in fastboot mode through a declarative
flashing script packaged inside a firmware archive.

It provides commands to enumerate fastboot devices, validate a firmware
archive's script without touching a device, and run the script end to end.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			pterm.DisableColor()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "host", `Fastboot transport: "host" (shell out to a system fastboot binary) or "usb" (drive the device directly)`)
	rootCmd.PersistentFlags().StringVar(&fastbootBinary, "fastboot-binary", "", `Path to the fastboot binary (transport=host only); defaults to $PATH lookup`)
}

// IsJSON returns true if JSON output mode is enabled
func IsJSON() bool {
	return jsonOutput
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// PrintError prints an error message, formatted as JSON if in JSON mode
func PrintError(message string, code string) {
	if jsonOutput {
		errObj := map[string]string{
			"error": message,
			"code":  code,
		}
		data, _ := json.Marshal(errObj)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		pterm.Error.Println(message)
	}
}

