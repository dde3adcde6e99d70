package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/session"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score every resume in a directory against one job description",
	Run: func(cmd *cobra.Command, _ []string) {
		batch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("dir", ".", "directory with .pdf and .docx resumes")
	addJobDescriptionFlags(batchCmd)
	batchCmd.Flags().Float64("rate", 1, "requests per second, 0 for no pacing")
}

func batch(cmd *cobra.Command) {
	logger, config := setup()

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("loading the api key", zap.Error(err))
	}

	jd, sample, err := jobDescriptionFromFlags(cmd)
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}
	if sample {
		jd = session.SampleJobDescription
	}
	if strings.TrimSpace(jd) == "" {
		logger.Fatal("one of --jd, --jd-file or --sample-jd is required")
	}

	dir, _ := cmd.Flags().GetString("dir")
	paths, err := session.ListResumes(dir)
	if err != nil {
		logger.Fatal("listing resumes", zap.String("dir", dir), zap.Error(err))
	}
	if len(paths) == 0 {
		logger.Info("exiting", zap.String("reason", "no resumes found"), zap.String("dir", dir))
		return
	}

	detailed, _ := cmd.Flags().GetBool("detailed")
	perSecond, _ := cmd.Flags().GetFloat64("rate")

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	b := &session.Batch{
		Scorer:         newScorer(cmd, client),
		Limiter:        rate.NewLimiter(limit, 1),
		JobDescription: jd,
		Detailed:       detailed,
		MaxMB:          config.Upload.MaxFileMB,
		Logger:         logger,
	}

	logger.Info("starting the batch", zap.Int("count", len(paths)), zap.String("api", client.APIURL))

	items, err := b.Run(cmd.Context(), paths)
	if err != nil {
		logger.Error("batch interrupted", zap.Error(err), zap.Int("done", len(items)))
	}

	session.SortByScore(items)

	if err := writeTable(os.Stdout, dir, items); err != nil {
		logger.Fatal("printing results", zap.Error(err))
	}
}

func writeTable(w io.Writer, dir string, items []session.BatchItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tFIT\tLATENCY\tRESUME\tERROR")

	for _, item := range items {
		name := item.Path
		if rel, err := filepath.Rel(dir, item.Path); err == nil {
			name = rel
		}

		if item.Result == nil {
			fmt.Fprintf(tw, "-\t-\t-\t%s\t%s\n", name, item.Error)
			continue
		}

		fmt.Fprintf(tw, "%d%%\t%s\t%s\t%s\t\n",
			report.Percent(item.Result.Score),
			report.Fit(item.Result.Score).Label,
			report.FormatLatency(item.Latency),
			name,
		)
	}

	return tw.Flush()
}
