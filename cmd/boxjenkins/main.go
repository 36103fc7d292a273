// Command boxjenkins identifies, fits, checks and forecasts seasonal ARIMA
// models for a monthly series.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
