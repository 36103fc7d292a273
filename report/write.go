package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var forecastHeader = []string{
	"step", "month", "mean", "std_err", "lower", "upper",
	"original", "original_lower", "original_upper",
}

// WriteJSON writes s as indented JSON. Non-finite numbers become null.
func WriteJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// WriteYAML writes s as YAML.
func WriteYAML(w io.Writer, s *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes one forecast table with a header row.
func WriteCSV(w io.Writer, f Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(forecastHeader); err != nil {
		return err
	}
	for _, p := range f.Points {
		row := []string{strconv.Itoa(p.Step), p.Month}
		for _, v := range p.values() {
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with one sheet per forecast horizon, a
// candidate sheet and an accuracy sheet when held-out scores exist.
func WriteXLSX(path string, s *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	first := ""
	for _, fc := range s.Forecasts {
		sheet := fmt.Sprintf("h%d", fc.Horizon)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if first == "" {
			first = sheet
		}
		if err := setRow(f, sheet, 1, header(forecastHeader)); err != nil {
			return err
		}
		for i, p := range fc.Points {
			row := []interface{}{p.Step, p.Month}
			for _, v := range p.values() {
				row = append(row, cellValue(v))
			}
			if err := setRow(f, sheet, i+2, row); err != nil {
				return err
			}
		}
	}

	if err := writeCandidates(f, s.Candidates); err != nil {
		return err
	}
	if len(s.Accuracy) > 0 {
		if err := writeAccuracy(f, s.Accuracy); err != nil {
			return err
		}
	}

	if first != "" {
		if idx, err := f.GetSheetIndex(first); err == nil {
			f.SetActiveSheet(idx)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeCandidates(f *excelize.File, candidates []Candidate) error {
	const sheet = "candidates"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, header([]string{
		"name", "model", "status", "aicc", "bic", "sigma2", "white_noise", "caveat", "error",
	})); err != nil {
		return err
	}
	for i, c := range candidates {
		row := []interface{}{
			c.Name, c.Model, c.Status,
			cellValue(c.AICc), cellValue(c.BIC), cellValue(c.Sigma2),
			c.WhiteNoise, c.Caveat, c.Error,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeAccuracy(f *excelize.File, rows []Accuracy) error {
	const sheet = "accuracy"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, header([]string{"candidate", "n", "rmse", "mae", "mape", "coverage"})); err != nil {
		return err
	}
	for i, a := range rows {
		row := []interface{}{
			a.Candidate, a.N,
			cellValue(a.RMSE), cellValue(a.MAE), cellValue(a.MAPE), cellValue(a.Coverage),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func header(names []string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// cellValue leaves non-finite numbers as empty cells.
func cellValue(v Float) interface{} {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func formatFloat(v Float) string {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (p Point) values() []Float {
	return []Float{p.Mean, p.StdErr, p.Lower, p.Upper, p.Original, p.OriginalLower, p.OriginalUpper}
}

// Write renders s into dir in each requested format and returns the paths
// written. CSV produces one file per forecast horizon.
func Write(dir string, formats []string, s *Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for _, format := range formats {
		switch format {
		case FormatJSON:
			p := filepath.Join(dir, "summary.json")
			if err := writeFile(p, func(w io.Writer) error { return WriteJSON(w, s) }); err != nil {
				return paths, err
			}
			paths = append(paths, p)
		case FormatYAML:
			p := filepath.Join(dir, "summary.yaml")
			if err := writeFile(p, func(w io.Writer) error { return WriteYAML(w, s) }); err != nil {
				return paths, err
			}
			paths = append(paths, p)
		case FormatCSV:
			for _, fc := range s.Forecasts {
				p := filepath.Join(dir, fmt.Sprintf("forecast_h%d.csv", fc.Horizon))
				if err := writeFile(p, func(w io.Writer) error { return WriteCSV(w, fc) }); err != nil {
					return paths, err
				}
				paths = append(paths, p)
			}
		case FormatXLSX:
			p := filepath.Join(dir, "forecast.xlsx")
			if err := WriteXLSX(p, s); err != nil {
				return paths, err
			}
			paths = append(paths, p)
		default:
			return paths, fmt.Errorf("unknown format %q", format)
		}
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
