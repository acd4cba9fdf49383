package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"craftyprep/internal/imageio"
	"craftyprep/internal/pipeline"
)

func newAnalyzeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Print the automatic threshold and histogram summary of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, info, err := imageio.LoadFile(args[0], e.imageOptions())
			if err != nil {
				return err
			}

			res, err := pipeline.AutoPrep(cmd.Context(), src, nil)
			if err != nil {
				return err
			}

			gray := &res.GrayHistogram
			lo, hi, _ := gray.Range()
			coverage := pipeline.CalculateCoverage(res.Baseline)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:       %s\n", args[0])
			fmt.Fprintf(out, "format:     %s\n", info.Format)
			fmt.Fprintf(out, "size:       %dx%d", info.Width, info.Height)
			if info.Scaled() {
				fmt.Fprintf(out, " (from %dx%d)", info.OriginalWidth, info.OriginalHeight)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "gray range: %d..%d\n", lo, hi)
			fmt.Fprintf(out, "gray mean:  %.1f\n", gray.Mean())
			fmt.Fprintf(out, "levels:     %d\n", gray.Occupied())
			fmt.Fprintf(out, "threshold:  %d\n", res.Threshold)
			fmt.Fprintf(out, "burn:       %.1f%%\n", coverage.BlackFraction*100)
			fmt.Fprintf(out, "refine:     %s\n", strings.Join(pipeline.RefinementSteps(), " -> "))
			return nil
		},
	}
}
