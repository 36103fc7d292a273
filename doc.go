// Package boxjenkins is a Box-Jenkins forecasting pipeline for monthly
// series with a yearly cycle.
//
// A run transforms the training window to stationarity, fits a fixed list
// of seasonal ARIMA candidates by maximum likelihood, prunes insignificant
// coefficients, rejects non-causal or non-invertible fits, checks the
// residuals for white noise and forecasts from the candidate with the
// lowest AICc. Forecast intervals are built on the transformed scale and
// mapped back through the inverse power transform.
//
// # Quick Start
//
// Run the whole pipeline from a config:
//
//	cfg, _ := config.Load("boxjenkins.yaml")
//	series, _ := timeseries.LoadCSV(cfg.Input, nil)
//	res, _ := pipeline.Run(ctx, cfg, series, logger)
//	report.Write(cfg.Output.Dir, cfg.Output.Formats, report.Build(res))
//
// Or fit a single model to an already stationary series:
//
//	spec, _ := sarima.NewSpec("airline", sarima.Order{Q: 1, SQ: 1, Period: 12}, false)
//	model, _ := sarima.Fit(ctx, values, spec)
//	pred, _ := model.Predict(24)
//
// # Packages
//
//   - timeseries: monthly series, CSV and XLSX loading
//   - transform: power transform with λ search and differencing
//   - stats: ACF, PACF, portmanteau, normality and unit-root tests
//   - arima: state-space filter and polynomial helpers
//   - sarima: multiplicative seasonal ARMA estimation and pruning
//   - stability: causality and invertibility checks
//   - diagnostics: residual white-noise battery
//   - spectral: periodogram, Fisher's g, cumulative periodogram
//   - forecast: prediction intervals and hold-out accuracy
//   - selection: concurrent candidate evaluation
//   - pipeline: end-to-end run with metrics
//   - report: JSON, YAML, CSV and XLSX output
//   - config: viper-backed configuration
//
// The boxjenkins command in cmd/boxjenkins wraps the pipeline.
//
// # References
//
//   - Box, G. E. P., Jenkins, G. M., Reinsel, G. C., & Ljung, G. M. (2015). Time Series Analysis: Forecasting and Control
//   - Brockwell, P. J., & Davis, R. A. (2016). Introduction to Time Series and Forecasting
package boxjenkins
