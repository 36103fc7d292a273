package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asamerry/Time-Series-Project/config"
	"github.com/asamerry/Time-Series-Project/pipeline"
	"github.com/asamerry/Time-Series-Project/report"
	"github.com/asamerry/Time-Series-Project/timeseries"
)

type runOptions struct {
	holdout int
	outDir  string
	formats []string
	metrics string
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline and write the reports",
		Example: `  # Use ./boxjenkins.yaml
  boxjenkins run

  # Hold out the last 24 months for evaluation
  boxjenkins run --input cpi.csv --holdout 24 --format json,xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.holdout, "holdout", 0, "months held out for evaluation when no test window is configured (-1 picks a size)")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().StringSliceVar(&opts.formats, "format", nil, "report formats: json, yaml, csv, xlsx (overrides config)")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "write run metrics to this textfile (overrides config)")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	if opts.outDir != "" {
		a.cfg.Output.Dir = opts.outDir
	}
	if len(opts.formats) > 0 {
		a.cfg.Output.Formats = opts.formats
	}
	if opts.metrics != "" {
		a.cfg.Output.Metrics = opts.metrics
	}

	series, err := a.loadSeries()
	if err != nil {
		return err
	}
	if err := applyHoldout(a.cfg, series, opts.holdout); err != nil {
		return err
	}

	metrics, err := pipeline.NewMetrics()
	if err != nil {
		return err
	}
	res, err := pipeline.NewRunner(a.cfg, a.logger, metrics).Run(cmd.Context(), series)
	if err != nil {
		return err
	}

	summary := report.Build(res)
	paths, err := report.Write(a.cfg.Output.Dir, a.cfg.Output.Formats, summary)
	if err != nil {
		return err
	}
	for _, p := range paths {
		a.logger.WithField("path", p).Info("Report written")
	}

	if a.cfg.Output.Metrics != "" {
		if err := metrics.WriteTextfile(a.cfg.Output.Metrics); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"run_id": res.RunID,
		"best":   summary.Best,
		"lambda": res.Transform.Lambda(),
	}).Info("Run complete")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Best model: %s %s\n", summary.Best, res.Best.Model.Spec())
	for _, acc := range summary.Accuracy {
		fmt.Fprintf(out, "  %-16s RMSE=%.4f MAE=%.4f MAPE=%.2f%% coverage=%.2f\n",
			acc.Candidate, float64(acc.RMSE), float64(acc.MAE), float64(acc.MAPE), float64(acc.Coverage))
	}
	return nil
}

// applyHoldout sets the test window to the last months of series when none
// is configured. months < 0 sizes the holdout from the series length.
func applyHoldout(cfg *config.Config, series *timeseries.Series, months int) error {
	if months == 0 || cfg.Window.TestStart != "" {
		return nil
	}
	n := series.Len()
	if months < 0 {
		months = holdoutSize(n, cfg.Transform.Period)
	}
	if months >= n {
		return fmt.Errorf("holdout of %d months leaves no training data (n=%d)", months, n)
	}

	trainEnd := series.Timestamps[n-months-1]
	cfg.Window.TrainEnd = trainEnd.Format(timeseries.MonthLayout)
	cfg.Window.TestStart = trainEnd.AddDate(0, 1, 0).Format(timeseries.MonthLayout)
	cfg.Window.TestEnd = series.End().Format(timeseries.MonthLayout)
	return nil
}

// holdoutSize is a fifth of the series, at least one seasonal cycle, capped
// at thirty and never below three.
func holdoutSize(n, period int) int {
	size := n / 5
	if period > 0 {
		size = max(size, period)
	}
	return max(min(size, 30), 3)
}
