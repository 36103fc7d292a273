// Package stats provides the statistical building blocks of the pipeline.
//
// # Correlation tables
//
// ACF and PACF return (lag, value, bound) rows for lags 1..maxLag with the
// large-sample bound ±1.96/sqrt(n). They are a decision aid: significant
// lags split into within-period lags and seasonal multiples suggest
// candidate orders, which are then written into configuration.
//
//	acf, _ := stats.ACF(values, 36)
//	within, seasonal := stats.SplitBySeason(stats.SignificantLags(acf), 12)
//
// # Residual tests
//
//	lb, _ := stats.LjungBox(residuals, 22, p+q)  // H0: no autocorrelation
//	bp, _ := stats.BoxPierce(residuals, 22, p+q)
//	ml, _ := stats.McLeodLi(residuals, 22)       // Ljung-Box on squares, fitdf 0
//	sw, _ := stats.ShapiroWilk(residuals)        // H0: normality
//
// Chi-squared p-values come from gonum's distuv. Shapiro-Wilk follows
// Royston's AS R94 approximation and is valid for 3 <= n <= 5000.
//
// # Stationarity
//
// KPSS (H0: stationary) and ADF (H0: unit root) are advisory; NDiffs and
// NSDiffs turn them into suggested differencing orders.
package stats
