package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-matcher/internal/matcher"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the built-in api base",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)
		fmt.Printf("api: %s\n", matcher.NormalizeBaseURL(apiBase))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
