package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storeops/logship/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the logship version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
