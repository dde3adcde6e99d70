package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matcher"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/resume"
	"github.com/spigell/resume-matcher/internal/session"
)

const (
	PromptDownloadJSON    = "Download JSON"
	PromptCopyCoverLetter = "Copy cover letter"
	PromptAnalyzeAgain    = "Analyze again"
	PromptExit            = "Exit"
)

var (
	errExit  = errors.New("exit requested")
	errAgain = errors.New("new analysis requested")
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one resume against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("resume", "r", "", "resume file (.pdf or .docx)")
	addJobDescriptionFlags(matchCmd)
	matchCmd.Flags().StringP("output", "o", "", "write the raw result to this file (default is "+report.DefaultJSONName+" when saved from the menu)")
	matchCmd.Flags().Bool("copy-cover-letter", false, "copy the cover letter to the clipboard")
	matchCmd.Flags().BoolP("yes", "y", false, "do not show the action menu after the result")
	matchCmd.Flags().Duration("timeout", 0, "overall timeout for one analysis (default is api.timeout)")
}

// addJobDescriptionFlags registers the inputs shared by match and batch.
func addJobDescriptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("jd", "", "job description text")
	cmd.Flags().String("jd-file", "", "file with the job description, - for stdin")
	cmd.Flags().Bool("sample-jd", false, "use the built-in sample job description")
	cmd.Flags().Bool("detailed", false, "ask for strengths, suggestions and a cover letter")
	cmd.Flags().Bool("text", false, "extract the PDF text locally and send only the text")
}

func match(cmd *cobra.Command) {
	logger, config := setup()

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("loading the api key", zap.Error(err),
			zap.String("hint", "set RESUME_MATCHER_API_KEY_FILE or the 'api.api-key-file' key in the configuration file"),
		)
	}

	scorer := newScorer(cmd, client)
	interactive := isInteractive()
	output, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	logger.Info("starting the resume-matcher",
		zap.String("version", version),
		zap.String("api", client.APIURL),
		zap.Bool("api_key", client.HasAPIKey()),
	)

	form := session.New(config.Upload.MaxFileMB, logger)
	first := true

	for {
		if err := fillForm(cmd, form, interactive, first); err != nil {
			logger.Fatal("preparing the analysis", zap.Error(err))
		}
		first = false

		ok := analyze(cmd.Context(), form, scorer, timeout, logger)

		if ok && output != "" {
			if path, err := report.SaveJSON(output, form.Result()); err != nil {
				logger.Error("saving result", zap.Error(err))
			} else {
				logger.Info("saved result", zap.String("filename", path))
			}
		}

		if copyFlag, _ := cmd.Flags().GetBool("copy-cover-letter"); ok && copyFlag {
			if err := report.CopyCoverLetter(form.Result()); err != nil {
				logger.Error("copying cover letter", zap.Error(err))
			}
		}

		if yes, _ := cmd.Flags().GetBool("yes"); yes || !interactive {
			if !ok {
				logger.Fatal("analysis failed", zap.String("error", form.Error()))
			}
			return
		}

		if err := actionMenu(form, logger, output); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// actionMenu loops until the user asks for a new analysis or exits.
func actionMenu(form *session.Form, logger *zap.Logger, output string) error {
	for {
		items := []string{PromptAnalyzeAgain, PromptExit}
		if r := form.Result(); r != nil {
			head := []string{PromptDownloadJSON}
			if strings.TrimSpace(r.CoverLetter) != "" {
				head = append(head, PromptCopyCoverLetter)
			}
			items = append(head, items...)
		}

		prompt := promptui.Select{
			Label: "What next?",
			Items: items,
		}

		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		err = handleAction(action, form, logger, output)
		switch {
		case errors.Is(err, errAgain):
			return nil
		case errors.Is(err, errExit):
			return err
		case err != nil:
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(action string, form *session.Form, logger *zap.Logger, output string) error {
	switch action {
	case PromptDownloadJSON:
		path, err := report.SaveJSON(output, form.Result())
		if err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		logger.Info("saved result", zap.String("filename", path))
		return nil
	case PromptCopyCoverLetter:
		if err := report.CopyCoverLetter(form.Result()); err != nil {
			return err
		}
		logger.Info("cover letter copied to clipboard")
		return nil
	case PromptAnalyzeAgain:
		if err := form.Reset(); err != nil {
			return err
		}
		return errAgain
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// fillForm puts the resume, the job description and the detailed flag into
// the form. Flags are used on the first round only; missing values are asked
// for when a terminal is attached.
func fillForm(cmd *cobra.Command, form *session.Form, interactive, first bool) error {
	path := ""
	if first {
		path, _ = cmd.Flags().GetString("resume")
	}
	if strings.TrimSpace(path) == "" {
		if !interactive {
			return errors.New("--resume is required")
		}

		var err error
		path, err = promptText("Resume file (.pdf or .docx)", false)
		if err != nil {
			return err
		}
	}

	file, err := resume.Load(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("loading resume: %w", err)
	}
	if err := form.SetFile(file, resume.SourceBrowse); err != nil {
		return errors.New(form.Error())
	}

	jd, sample := "", false
	if first {
		if jd, sample, err = jobDescriptionFromFlags(cmd); err != nil {
			return err
		}
	}

	switch {
	case sample:
		form.LoadSampleJD()
	case strings.TrimSpace(jd) != "":
		form.SetJobDescription(jd)
	case interactive:
		text, err := promptText("Job description (empty for the sample)", true)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			form.LoadSampleJD()
		} else {
			form.SetJobDescription(text)
		}
	default:
		return errors.New("one of --jd, --jd-file or --sample-jd is required")
	}

	detailed, _ := cmd.Flags().GetBool("detailed")
	form.SetDetailed(detailed)

	return nil
}

// jobDescriptionFromFlags reads --jd, --jd-file and --sample-jd.
func jobDescriptionFromFlags(cmd *cobra.Command) (string, bool, error) {
	if sample, _ := cmd.Flags().GetBool("sample-jd"); sample {
		return "", true, nil
	}

	if path, _ := cmd.Flags().GetString("jd-file"); path != "" {
		var (
			data []byte
			err  error
		)
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return "", false, fmt.Errorf("reading job description: %w", err)
		}
		return string(data), false, nil
	}

	jd, _ := cmd.Flags().GetString("jd")
	return jd, false, nil
}

// analyze submits the form and prints the outcome. It reports whether a
// result was received.
func analyze(ctx context.Context, form *session.Form, scorer session.Scorer, timeout time.Duration, logger *zap.Logger) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := form.Submit(ctx, scorer); err != nil {
		logger.Error("analysis failed", zap.String("error", form.Error()))
		return false
	}

	state := form.State()
	meta := report.Meta{
		Latency:    state.Latency,
		HasLatency: state.HasLatency,
		AnalyzedAt: state.AnalyzedAt,
	}

	if err := report.Render(os.Stdout, state.Result, meta); err != nil {
		logger.Error("rendering result", zap.Error(err))
	}

	return true
}

func newScorer(cmd *cobra.Command, client *matcher.Client) session.Scorer {
	if text, _ := cmd.Flags().GetBool("text"); text {
		return &matcher.TextMode{Client: client}
	}
	return client
}

func promptText(label string, allowEmpty bool) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
	}
	if !allowEmpty {
		prompt.Validate = func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("value is required")
			}
			return nil
		}
	}

	return prompt.Run()
}

func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
