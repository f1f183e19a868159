package cmd

import (
	"os/exec"
	"runtime"

	"github.com/fbflash/fbflash/internal/output"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for fbflash including build details.`,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version         string `json:"version"`
	BuildDate       string `json:"buildDate"`
	GoVersion       string `json:"goVersion"`
	Platform        string `json:"platform"`
	HostFastbootBin string `json:"hostFastbootBinary,omitempty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := versionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if path, err := exec.LookPath("fastboot"); err == nil {
		info.HostFastbootBin = path
	}

	if jsonOutput {
		return output.PrintJSON(info)
	}

	pterm.DefaultSection.Println("fbflash")

	tableData := pterm.TableData{
		{"Version", info.Version},
		{"Build Date", info.BuildDate},
		{"Go Version", info.GoVersion},
		{"Platform", info.Platform},
	}

	if info.HostFastbootBin != "" {
		tableData = append(tableData, []string{"Host fastboot binary", info.HostFastbootBin})
	}

	pterm.DefaultTable.WithData(tableData).Render()

	return nil
}
