package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"goqvalue/internal"
	"goqvalue/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Sheet is the worksheet read from and written to in xlsx files
const Sheet = "Sheet1"

// Table is a header row plus raw string cells
type Table struct {
	Headers []string
	Rows    [][]string
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx", "csv" or "json"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType(filePath), logger: logger}
}

func fileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	}
	return "xlsx"
}

// ReadTable reads Sheet1 of an xlsx file, or a whole CSV or JSON file
func (r *DataReader) ReadTable() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	case "json":
		rows, err = r.readJSONRows()
	default:
		return nil, errors.InvalidInput("unsupported file type: " + r.fileType)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file must have a header row and at least one data row", strings.ToUpper(r.fileType)))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open Excel file: %w", err))
	}
	defer f.Close()

	rows, err := f.GetRows(Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read %s: %w", Sheet, err))
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open CSV file: %w", err))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read CSV file: %w", err))
	}
	return rows, nil
}

// readJSONRows accepts a bare array of numbers (one "pvalue" column), an
// array of flat objects, or an object of arrays (one column
// per array-valued key, shorter arrays padded with blanks). Object keys
// become headers in sorted order.
func (r *DataReader) readJSONRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to open JSON file: %w", err))
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to read JSON file: %w", err))
	}

	switch v := doc.(type) {
	case []interface{}:
		return jsonArrayRows(v)
	case map[string]interface{}:
		return jsonColumnRows(v)
	}
	return nil, errors.InvalidInput("JSON file must hold an array or an object of arrays")
}

func jsonArrayRows(items []interface{}) ([][]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if _, ok := items[0].(map[string]interface{}); !ok {
		rows := [][]string{{"pvalue"}}
		for _, item := range items {
			rows = append(rows, []string{jsonCell(item)})
		}
		return rows, nil
	}

	keySet := map[string]bool{}
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("JSON element %d is not an object", i))
		}
		for k := range obj {
			keySet[k] = true
		}
	}
	headers := sortedKeys(keySet)

	rows := [][]string{headers}
	for _, item := range items {
		obj := item.(map[string]interface{})
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = jsonCell(obj[h])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func jsonColumnRows(obj map[string]interface{}) ([][]string, error) {
	columns := map[string][]interface{}{}
	keySet := map[string]bool{}
	n := 0
	for k, v := range obj {
		if arr, ok := v.([]interface{}); ok {
			columns[k] = arr
			keySet[k] = true
			if len(arr) > n {
				n = len(arr)
			}
		}
	}
	if len(columns) == 0 {
		return nil, errors.InvalidInput("JSON object has no array-valued fields")
	}
	headers := sortedKeys(keySet)

	rows := [][]string{headers}
	for i := 0; i < n; i++ {
		row := make([]string, len(headers))
		for j, h := range headers {
			if col := columns[h]; i < len(col) {
				row[j] = jsonCell(col[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func jsonCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case json.Number:
		return c.String()
	case string:
		return c
	case bool:
		return strconv.FormatBool(c)
	}
	return fmt.Sprint(v)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Common p-value column names, checked case-insensitively
var pValueColumns = []string{"p", "pvalue", "p_value", "p.value", "pval", "p-value"}

// DetectPValueColumn returns the first conventionally named column, falling
// back to the first column whose cells all parse as numbers
func (t *Table) DetectPValueColumn() (string, error) {
	for _, name := range pValueColumns {
		for _, h := range t.Headers {
			if strings.EqualFold(h, name) {
				return h, nil
			}
		}
	}
	for _, h := range t.Headers {
		if _, err := t.Column(h); err == nil {
			return h, nil
		}
	}
	return "", errors.InvalidInput("could not detect a numeric p-value column")
}

// Column parses every cell of the named column as a float
func (t *Table) Column(name string) ([]float64, error) {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("column %q not found (have %s)", name, strings.Join(t.Headers, ", ")))
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := parseCell(row[idx])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d column %q: %v", i+2, name, err))
		}
		values[i] = v
	}
	return values, nil
}

// Matrix parses every cell as a float, one slice per data row. Blank cells
// at the end of a row are dropped so rows may differ in length.
func (t *Table) Matrix() ([][]float64, error) {
	out := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		values := make([]float64, end)
		for j := 0; j < end; j++ {
			v, err := parseCell(row[j])
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d column %d: %v", i+2, j+1, err))
			}
			values[j] = v
		}
		out[i] = values
	}
	return out, nil
}

func parseCell(cell string) (float64, error) {
	if cell == "" {
		return 0, fmt.Errorf("empty cell")
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	return v, nil
}

// ReadColumn reads one numeric column; an empty name auto-detects it
func ReadColumn(path, column string, logger *internal.Logger) ([]float64, error) {
	table, err := NewDataReader(path, logger).ReadTable()
	if err != nil {
		return nil, err
	}
	if column == "" {
		if column, err = table.DetectPValueColumn(); err != nil {
			return nil, err
		}
	}
	return table.Column(column)
}
