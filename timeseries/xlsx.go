package timeseries

import (
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/asamerry/Time-Series-Project/tserr"
)

// LoadXLSX loads a monthly series from a worksheet. Date cells stored as
// Excel serial numbers are converted; text labels go through the same
// layouts as LoadCSV.
func LoadXLSX(filename string, opts *LoadOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultLoadOptions()
	}

	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, tserr.Wrap(tserr.KindData, "load", err, "open %s", filename)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, tserr.New(tserr.KindData, "load", "%s has no worksheets", filename)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, tserr.Wrap(tserr.KindData, "load", err, "read sheet %q", sheet)
	}

	dateIdx := 0
	start := opts.SkipRows
	if opts.HasHeader && start < len(rows) {
		_, dateIdx = findColumns(rows[start], opts)
		start++
	}
	if dateIdx >= 0 {
		for i := start; i < len(rows); i++ {
			if dateIdx < len(rows[i]) {
				rows[i][dateIdx] = serialToLabel(rows[i][dateIdx], f)
			}
		}
	}

	s, err := fromRows(rows, opts)
	if err != nil {
		return nil, err
	}
	s.Name = seriesName(filename, opts)
	return s, nil
}

func serialToLabel(cell string, f *excelize.File) string {
	serial, err := strconv.ParseFloat(cleanCell(cell), 64)
	if err != nil || serial < 1 {
		return cell
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return cell
	}
	return t.Format(MonthLayout)
}
