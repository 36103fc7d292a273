package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asamerry/Time-Series-Project/config"
	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/transform"
)

// app carries state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	cfgFile   string
	input     string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "boxjenkins",
		Short: "Box-Jenkins seasonal ARIMA forecasting",
		Long: `Transforms a monthly series to stationarity, fits and prunes candidate
seasonal ARIMA models, checks their residuals and forecasts with intervals.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./boxjenkins.yaml)")
	root.PersistentFlags().StringVarP(&a.input, "input", "i", "", "input CSV or XLSX file (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format, text or json (overrides config)")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newCorrelogramCmd(a))
	root.AddCommand(newSpectrumCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.input != "" {
		cfg.Input = a.input
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg
	a.logger = setupLogger(cfg.Log.Level, cfg.Log.Format)
	return nil
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}

// loadSeries reads the configured input. The loader is picked by extension.
func (a *app) loadSeries() (*timeseries.Series, error) {
	if a.cfg.Input == "" {
		return nil, fmt.Errorf("no input file: set input in the config or pass --input")
	}
	opts := timeseries.DefaultLoadOptions()
	if a.cfg.ValueColumn != "" {
		opts.ValueColumn = a.cfg.ValueColumn
	}
	opts.Sheet = a.cfg.Sheet

	var (
		series *timeseries.Series
		err    error
	)
	switch strings.ToLower(filepath.Ext(a.cfg.Input)) {
	case ".xlsx", ".xlsm":
		series, err = timeseries.LoadXLSX(a.cfg.Input, opts)
	default:
		series, err = timeseries.LoadCSV(a.cfg.Input, opts)
	}
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"input": a.cfg.Input,
		"n":     series.Len(),
		"start": series.Start().Format(timeseries.MonthLayout),
		"end":   series.End().Format(timeseries.MonthLayout),
	}).Info("Series loaded")
	return series, nil
}

// transformed loads the input, restricts it to the training window when one
// is configured and applies the configured transform.
func (a *app) transformed(ctx context.Context) (*transform.Result, error) {
	series, err := a.loadSeries()
	if err != nil {
		return nil, err
	}
	start, err := month(a.cfg.Window.TrainStart)
	if err != nil {
		return nil, err
	}
	end, err := month(a.cfg.Window.TrainEnd)
	if err != nil {
		return nil, err
	}
	if series, err = series.Window(start, end); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return transform.NewTransformer(a.cfg.TransformerConfig(), a.logger).Transform(series)
}

// month parses a YYYY-MM label; an empty label leaves the bound open.
func month(label string) (time.Time, error) {
	if label == "" {
		return time.Time{}, nil
	}
	return timeseries.ParseMonth(label)
}
