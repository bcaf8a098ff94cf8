package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/funcstack/funcstack/internal/client/output"
	"github.com/funcstack/funcstack/internal/constants"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(_ *cobra.Command, _ []string) {
		output.Header(constants.ProjectName)
		output.KeyValue("Version", *constants.GetVersion())
		output.KeyValue("Go", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
