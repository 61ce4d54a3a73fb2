package loader

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/miss-inputs/tpg-cli/internal/geodesy"
	"github.com/miss-inputs/tpg-cli/internal/pointset"
)

// XLSXOptions configures the spreadsheet point-set reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// column header aliases accepted case-insensitively.
var (
	latHeaders  = []string{"lat", "latitude"}
	lngHeaders  = []string{"lng", "lon", "long", "longitude"}
	nameHeaders = []string{"name", "title", "point"}
	descHeaders = []string{"description", "desc", "notes"}
)

// ReadPointsXLSX reads a point set from a spreadsheet. The first row is a
// header locating the lat/lng columns (name and description optional);
// blank rows are skipped. The set is validated before return.
func ReadPointsXLSX(path string, opts XLSXOptions) (pointset.Set, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open spreadsheet %s", path)
	}

	sheet, err := pickSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("loader: sheet %q is empty", sheet.Name)
	}

	header := rowStrings(sheet.Rows[0])
	latIdx := headerIndex(header, latHeaders)
	lngIdx := headerIndex(header, lngHeaders)
	if latIdx < 0 || lngIdx < 0 {
		return nil, eris.Errorf("loader: sheet %q has no lat/lng columns", sheet.Name)
	}
	nameIdx := headerIndex(header, nameHeaders)
	descIdx := headerIndex(header, descHeaders)

	var set pointset.Set
	for i, row := range sheet.Rows[1:] {
		cells := rowStrings(row)
		if blankRow(cells) {
			continue
		}
		lat, err := cellFloat(cells, latIdx)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d latitude", i+2)
		}
		lng, err := cellFloat(cells, lngIdx)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d longitude", i+2)
		}
		set = append(set, pointset.Point{
			Coordinate:  geodesy.Coordinate{Lat: lat, Lng: lng},
			Name:        cellString(cells, nameIdx),
			Description: cellString(cells, descIdx),
		})
	}

	if err := set.Validate(); err != nil {
		return nil, eris.Wrap(err, "loader: spreadsheet point set")
	}
	return set, nil
}

func pickSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("loader: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("loader: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = strings.TrimSpace(cell.String())
	}
	return cells
}

func headerIndex(header []string, aliases []string) int {
	for i, h := range header {
		for _, a := range aliases {
			if strings.EqualFold(h, a) {
				return i
			}
		}
	}
	return -1
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func cellString(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func cellFloat(cells []string, idx int) (float64, error) {
	if idx >= len(cells) || cells[idx] == "" {
		return 0, eris.New("missing value")
	}
	v, err := strconv.ParseFloat(cells[idx], 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse %q", cells[idx])
	}
	return v, nil
}
