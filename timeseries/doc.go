// Package timeseries provides the monthly Series type and its loaders.
//
// A Series pairs values with a strictly monthly index. Loaders do not
// validate the index; callers run ValidateMonthly before analysis so that a
// gap is reported as a DataError naming the offending month.
//
// # Loading
//
//	opts := timeseries.DefaultLoadOptions()
//	opts.ValueColumn = "UNRATE"
//	series, err := timeseries.LoadCSV("unrate.csv", opts)
//
//	opts.Sheet = "monthly"
//	series, err = timeseries.LoadXLSX("unrate.xlsx", opts)
//
// # Windows
//
//	start, _ := timeseries.ParseMonth("1990-01")
//	end, _ := timeseries.ParseMonth("2019-12")
//	train, err := series.Window(start, end)
package timeseries
