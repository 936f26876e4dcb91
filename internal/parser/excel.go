package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/file-inspector/backend/internal/models"
	"github.com/shakinm/xlsReader/helpers"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// ExcelParser handles xlsx and legacy xls workbooks.
type ExcelParser struct{}

func NewExcelParser() *ExcelParser {
	return &ExcelParser{}
}

func (p *ExcelParser) Name() string {
	return "excel"
}

func (p *ExcelParser) Kind() Kind {
	return KindExcel
}

func (p *ExcelParser) Parse(ctx context.Context, f *models.UploadedFile) (*Result, error) {
	table, err := ParseSpreadsheet(f.Content)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Blocks: []models.Block{{
			Type:  models.BlockTable,
			Title: "File Contents (Excel)",
			Table: table,
		}},
	}

	numeric := table.NumericColumns()
	if len(numeric) >= 2 {
		res.Table = table
		res.Blocks = append(res.Blocks, models.Block{
			Type:  models.BlockChartControls,
			Title: "Dynamic Charts",
			Chart: models.NewChartControls(numeric),
		})
	} else {
		res.Blocks = append(res.Blocks, models.Block{
			Type:  models.BlockInfo,
			Title: "Dynamic Charts",
			Text:  "The file does not contain enough numeric columns to generate charts.",
		})
	}
	return res, nil
}

// sheetData holds the cells of a worksheet as displayed text, together with
// a mask of the cells whose stored type is a plain number.
type sheetData struct {
	values  [][]string
	numbers [][]bool
}

func (s *sheetData) add(values []string, numbers []bool) {
	s.values = append(s.values, values)
	s.numbers = append(s.numbers, numbers)
}

// dropBlankRows removes rows without any visible content.
func (s *sheetData) dropBlankRows() {
	values, numbers := s.values[:0], s.numbers[:0]
	for i, rec := range s.values {
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				values = append(values, rec)
				numbers = append(numbers, s.numbers[i])
				break
			}
		}
	}
	s.values, s.numbers = values, numbers
}

// ParseSpreadsheet reads the first worksheet of a workbook. OOXML workbooks
// are recognised by their zip signature; anything else is read as BIFF.
// A column is numeric only when its cells are stored as numbers; dates,
// booleans and numbers stored as text are not.
func ParseSpreadsheet(data []byte) (*models.Table, error) {
	var (
		sheet *sheetData
		err   error
	)
	if bytes.HasPrefix(data, zipMagic) {
		sheet, err = readXLSX(data)
	} else {
		sheet, err = readXLS(data)
	}
	if err != nil {
		return nil, err
	}
	sheet.dropBlankRows()

	table, err := buildTable(KindExcel, sheet.values, false)
	if err != nil {
		return nil, err
	}
	markTypedNumeric(table, sheet.numbers)
	return table, nil
}

// markTypedNumeric flags the columns whose non-missing data cells are all
// stored as numbers. numbers[0] belongs to the header row.
func markTypedNumeric(t *models.Table, numbers [][]bool) {
	for col := range t.Columns {
		seen := 0
		numeric := true
		for r, row := range t.Rows {
			if IsMissing(row[col]) {
				continue
			}
			seen++
			mask := numbers[r+1]
			if col >= len(mask) || !mask[col] {
				numeric = false
				break
			}
		}
		t.Columns[col].Numeric = numeric && seen > 0
	}
}

func readXLSX(data []byte) (*sheetData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	name := sheets[0]

	formatted, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}

	dates := make(map[int]bool)
	sheet := &sheetData{}
	for r, row := range formatted {
		values := make([]string, len(row))
		numbers := make([]bool, len(row))
		for c, text := range row {
			values[c] = text
			if r >= len(raw) || c >= len(raw[r]) || IsMissing(raw[r][c]) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			ok, err := xlsxNumberCell(f, name, cell, dates)
			if err != nil {
				return nil, fmt.Errorf("reading cell %s: %w", cell, err)
			}
			if _, parses := ParseNumber(raw[r][c]); ok && parses {
				values[c] = raw[r][c]
				numbers[c] = true
			}
		}
		sheet.add(values, numbers)
	}
	return sheet, nil
}

// xlsxNumberCell reports whether cell holds a number that is not formatted
// as a date or time. dates caches the answer per style.
func xlsxNumberCell(f *excelize.File, sheet, cell string, dates map[int]bool) (bool, error) {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
		return false, nil
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	isDate, ok := dates[styleID]
	if !ok {
		style, err := f.GetStyle(styleID)
		if err != nil {
			return false, err
		}
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
		dates[styleID] = isDate
	}
	return !isDate, nil
}

func readXLS(data []byte) (sheet *sheetData, err error) {
	// xlsReader panics on some malformed BIFF streams.
	defer func() {
		if r := recover(); r != nil {
			sheet = nil
			err = fmt.Errorf("reading xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xls workbook: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	ws, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("reading first sheet: %w", err)
	}

	numRows := ws.GetNumberRows()
	sheet = &sheetData{}
	for rowIdx := 0; rowIdx < numRows; rowIdx++ {
		row, err := ws.GetRow(rowIdx)
		if err != nil || row == nil {
			sheet.add(nil, nil)
			continue
		}
		cols := row.GetCols()
		values := make([]string, len(cols))
		numbers := make([]bool, len(cols))
		for i, cell := range cols {
			values[i] = cell.GetString()
			switch cell.GetType() {
			case xlsNumber, xlsRK:
				xf := wb.GetXFbyIndex(cell.GetXFIndex())
				if xlsDateFormat(&wb, xf.GetFormatIndex()) {
					values[i] = formatExcelDate(cell.GetFloat64())
					continue
				}
				values[i] = strconv.FormatFloat(cell.GetFloat64(), 'f', -1, 64)
				numbers[i] = true
			}
		}
		end := len(trimTrailingEmpty(values))
		sheet.add(values[:end], numbers[:end])
	}
	return sheet, nil
}

// Cell record types reported by xlsReader for numeric cells.
const (
	xlsNumber = "*record.Number"
	xlsRK     = "*record.Rk"
)

func xlsDateFormat(wb *xls.Workbook, formatIdx int) bool {
	if formatIdx < 164 {
		return isDateNumFmt(formatIdx)
	}
	format := wb.GetFormatByIndex(formatIdx)
	return isDateFormatCode(format.String())
}

// formatExcelDate renders an Excel serial date, dropping a midnight time.
func formatExcelDate(serial float64) string {
	t := helpers.TimeFromExcelTime(serial, false)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// isDateNumFmt reports whether a built-in number format id is a date or time
// format.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format code contains date
// or time tokens outside quoted literals, escapes and bracketed sections.
func isDateFormatCode(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			switch unicode.ToLower(r) {
			case 'y', 'm', 'd', 'h', 's':
				return true
			}
		}
	}
	return false
}

func trimTrailingEmpty(rec []string) []string {
	end := len(rec)
	for end > 0 && strings.TrimSpace(rec[end-1]) == "" {
		end--
	}
	return rec[:end]
}
