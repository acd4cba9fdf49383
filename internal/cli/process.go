package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"craftyprep/internal/imageio"
	"craftyprep/internal/pipeline"
)

// outcome is the result of preparing one file.
type outcome struct {
	Input     string
	Output    string
	Threshold int
	Coverage  pipeline.CoverageMetrics
}

func newProcessCommand(e *env) *cobra.Command {
	var (
		adj  adjustmentFlags
		jobs int
	)

	cmd := &cobra.Command{
		Use:   "process FILE...",
		Short: "Run auto-prep and refinement over image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(adj.outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, path := range args {
				path := path
				g.Go(func() error {
					res, err := prepareFile(ctx, e, cmd.Flags(), &adj, path)
					if err != nil {
						return err
					}
					mu.Lock()
					defer mu.Unlock()
					printOutcome(out, res)
					return nil
				})
			}
			err := g.Wait()
			e.logTimings()
			return err
		},
	}

	adj.register(cmd.Flags())
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of images processed in parallel")
	return cmd
}

// prepareFile loads path, runs both pipelines and writes the result into
// the output directory.
func prepareFile(ctx context.Context, e *env, fs *pflag.FlagSet, adj *adjustmentFlags, path string) (outcome, error) {
	src, info, err := imageio.LoadFile(path, e.imageOptions())
	if err != nil {
		return outcome{}, err
	}
	if info.Scaled() {
		e.logger.Warning(component, "image downscaled", map[string]interface{}{
			"file":   path,
			"from":   fmt.Sprintf("%dx%d", info.OriginalWidth, info.OriginalHeight),
			"to":     fmt.Sprintf("%dx%d", info.Width, info.Height),
			"format": info.Format,
		})
	}

	res, err := pipeline.AutoPrep(ctx, src, nil)
	if err != nil {
		e.logger.Error(component, err, map[string]interface{}{"file": path})
		return outcome{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	e.recordStages(res)

	state, err := adj.state(fs, res.Threshold)
	if err != nil {
		return outcome{}, err
	}

	refined, err := pipeline.Refine(ctx, res.Baseline, state)
	if err != nil {
		return outcome{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	dst := outputPath(adj.outDir, path, adj.format)
	if err := imageio.SaveFile(dst, refined); err != nil {
		return outcome{}, err
	}

	e.logger.Info(component, "image prepared", map[string]interface{}{
		"file":           path,
		"output":         dst,
		"auto_threshold": res.Threshold,
		"threshold":      state.Threshold,
		"duration_ms":    res.Duration.Milliseconds(),
	})

	return outcome{
		Input:     path,
		Output:    dst,
		Threshold: state.Threshold,
		Coverage:  pipeline.CalculateCoverage(refined),
	}, nil
}

// outputPath names the engraving file after its source: photo.jpg becomes
// photo_laser.png unless a format is forced.
func outputPath(dir, src, format string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	ext := ".png"
	if format != "" {
		ext = imageio.Extension(imageio.FormatFor("x." + strings.TrimPrefix(format, ".")))
	} else if f, err := imaging.FormatFromFilename(src); err == nil && f != imaging.JPEG {
		ext = imageio.Extension(f)
	}
	return filepath.Join(dir, base+"_laser"+ext)
}

func printOutcome(w io.Writer, o outcome) {
	fmt.Fprintf(w, "%s -> %s (threshold %d, %.1f%% burn)\n",
		o.Input, o.Output, o.Threshold, o.Coverage.BlackFraction*100)
}
