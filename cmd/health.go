package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the matcher API is up",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, config := setup()

		client, err := newClient(config, logger)
		if err != nil {
			logger.Fatal("loading the api key", zap.Error(err))
		}

		h, err := client.Health(cmd.Context())
		if err != nil {
			logger.Fatal("checking the api", zap.String("api", client.APIURL), zap.Error(err))
		}

		fmt.Printf("%s: %s", client.APIURL, h.Status)
		if h.EmbedMode != "" {
			fmt.Printf(" (embed mode: %s)", h.EmbedMode)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
