package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asamerry/Time-Series-Project/spectral"
	"github.com/asamerry/Time-Series-Project/stats"
)

func newCorrelogramCmd(a *app) *cobra.Command {
	var maxLag int

	cmd := &cobra.Command{
		Use:   "correlogram",
		Short: "Print the ACF and PACF of the transformed, differenced series",
		Long: `Applies the configured power transform and differencing to the training
window and prints the sample ACF and PACF with their 95% bounds. Significant
lags are listed separately for within-period and seasonal lags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := a.transformed(cmd.Context())
			if err != nil {
				return err
			}
			values := tr.Differenced.Values
			lag := maxLag
			if lag <= 0 {
				lag = max(3*a.cfg.Transform.Period, 24)
			}
			lag = min(lag, len(values)/2)

			acf, err := stats.ACF(values, lag)
			if err != nil {
				return err
			}
			pacf, err := stats.PACF(values, lag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lambda=%.3f  n=%d  bound=±%.4f\n", tr.Lambda(), len(values), acf[0].Bound)
			fmt.Fprintf(out, "%4s %9s %9s\n", "lag", "acf", "pacf")
			for i := range acf {
				fmt.Fprintf(out, "%4d %9.4f%s %9.4f%s\n",
					acf[i].Lag, acf[i].Value, mark(acf[i]), pacf[i].Value, mark(pacf[i]))
			}

			period := a.cfg.Transform.Period
			within, seasonal := stats.SplitBySeason(stats.SignificantLags(acf), period)
			fmt.Fprintf(out, "ACF significant:  within %s, seasonal %s\n", lags(within), lags(seasonal))
			within, seasonal = stats.SplitBySeason(stats.SignificantLags(pacf), period)
			fmt.Fprintf(out, "PACF significant: within %s, seasonal %s\n", lags(within), lags(seasonal))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxLag, "max-lag", 0, "largest lag (default max(3·period, 24))")
	return cmd
}

func newSpectrumCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "spectrum",
		Short: "Print the strongest periodogram ordinates and Fisher's g test",
		Long: `Prints the periodogram of the transformed, differenced training window,
strongest ordinates first, followed by Fisher's g test for a hidden
periodicity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := a.transformed(cmd.Context())
			if err != nil {
				return err
			}
			values := tr.Differenced.Values
			ords, err := spectral.Periodogram(values)
			if err != nil {
				return err
			}
			g, err := spectral.FisherG(values)
			if err != nil {
				return err
			}

			sorted := append([]spectral.Ordinate(nil), ords...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Power > sorted[j].Power })
			if top > 0 && top < len(sorted) {
				sorted = sorted[:top]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%10s %10s %14s\n", "frequency", "period", "power")
			for _, o := range sorted {
				fmt.Fprintf(out, "%10.4f %10.2f %14.6g\n", o.Frequency, o.Period, o.Power)
			}
			fmt.Fprintf(out, "Fisher g=%.4f p=%.4g (period %.2f)\n", g.G, g.PValue, g.Period)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of ordinates to print (0 for all)")
	return cmd
}

func mark(c stats.Correlation) string {
	if c.Significant() {
		return "*"
	}
	return " "
}

func lags(l []int) string {
	if len(l) == 0 {
		return "none"
	}
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
