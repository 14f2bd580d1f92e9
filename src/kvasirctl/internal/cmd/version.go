package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kvasir-auth/kvasir/src/kvasirctl/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	if jsonOutput() {
		return output.PrintJSON(VersionInfo.Map())
	}
	output.PrintMessage(VersionInfo.Full())
	return nil
}
