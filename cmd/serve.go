package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form in front of the matcher API",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default is :3000)")
	serveCmd.Flags().Bool("text", false, "extract the PDF text locally and send only the text")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve(cmd *cobra.Command) {
	logger, config := setup()

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("loading the api key", zap.Error(err))
	}

	srv, err := web.New(web.Config{
		Listen:    config.Server.Listen,
		MaxFileMB: config.Upload.MaxFileMB,
		APIBase:   config.API.BaseURL,
	}, client, newScorer(cmd, client), logger)
	if err != nil {
		logger.Fatal("creating the web server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting the web form",
		zap.String("version", version),
		zap.String("listen", config.Server.Listen),
		zap.String("api", client.APIURL),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}

	logger.Info("stopped")
}
