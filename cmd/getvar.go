package cmd

import (
	"context"
	"fmt"

	"github.com/fbflash/fbflash/internal/output"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var getvarCmd = &cobra.Command{
	Use:   "getvar <serial> <name>",
	Short: "Query a single fastboot variable",
	Long:  `Issues "getvar <name>" against one device and prints its value.`,
	Example: `  fbflash getvar R58N90ABCDE product
  fbflash getvar R58N90ABCDE current-slot --json`,
	Args: cobra.ExactArgs(2),
	RunE: runGetvar,
}

func init() {
	rootCmd.AddCommand(getvarCmd)
}

func runGetvar(cmd *cobra.Command, args []string) error {
	serial, name := args[0], args[1]

	session, closeSession, err := openSession(serial)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeBinaryNotFound)
		return err
	}
	defer closeSession()

	value, ok, err := session.GetVar(context.Background(), name)
	if err != nil {
		PrintError(err.Error(), output.ErrCodeInternalError)
		return err
	}
	if !ok {
		err := fmt.Errorf("device did not report %s", name)
		if jsonOutput {
			output.PrintJSONError(err.Error(), output.ErrCodeInvalidInput)
		} else {
			PrintError(err.Error(), output.ErrCodeInvalidInput)
		}
		return err
	}

	if jsonOutput {
		return output.PrintJSON(map[string]string{"name": name, "value": value})
	}

	pterm.Printf("%s: %s\n", name, value)
	return nil
}
