// Package cli implements the craftyprep command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"craftyprep/internal/config"
	"craftyprep/internal/imageio"
	"craftyprep/internal/logger"
	"craftyprep/internal/pipeline"
	"craftyprep/internal/timing"
)

const component = "CLI"

// env is shared by every subcommand once the persistent flags are parsed.
type env struct {
	configPath string
	logLevel   string

	cfg     config.Config
	logger  logger.Logger
	timings *timing.Tracker
}

func (e *env) recordStages(res *pipeline.Result) {
	if e.timings == nil {
		return
	}
	for _, st := range res.Stages {
		e.timings.Record(st.Stage, st.Duration)
	}
}

func (e *env) logTimings() {
	if e.timings == nil {
		return
	}
	for _, s := range e.timings.Summaries() {
		e.logger.Debug(component, "stage timing", map[string]interface{}{
			"stage":   s.Operation,
			"runs":    s.Count,
			"mean_ms": s.Mean.Milliseconds(),
			"max_ms":  s.Max.Milliseconds(),
		})
	}
}

func (e *env) imageOptions() imageio.Options {
	return imageio.Options{
		MaxBytes:     e.cfg.Processing.MaxUploadBytes,
		MaxDimension: e.cfg.Processing.MaxDimension,
	}
}

// NewRootCommand builds the command tree. Log output goes to logOut.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "craftyprep",
		Short:         "Prepare images for laser engraving",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(e.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = e.logLevel
			}

			log, err := logger.New(logOut, cfg.Logging.Format, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			e.cfg = cfg
			e.logger = log
			e.timings = timing.NewTracker(0)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", config.DefaultPath(), "path to the TOML config file")
	pf.StringVar(&e.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newProcessCommand(e),
		newAnalyzeCommand(e),
		newWatchCommand(e),
	)
	return root
}
