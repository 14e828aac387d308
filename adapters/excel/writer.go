package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"goqvalue/domain/fdr"
	"goqvalue/internal/errors"

	"github.com/xuri/excelize/v2"
)

// resultTable lays a result out as one row per test
func resultTable(result *fdr.Result) ([]string, [][]interface{}) {
	headers := []string{"index", "pvalue", "qvalue"}
	lfdr := result.LFDR()
	sig := result.Significant()
	if lfdr != nil {
		headers = append(headers, "lfdr")
	}
	if sig != nil {
		headers = append(headers, "significant")
	}

	p := result.PValues()
	q := result.QValues()
	rows := make([][]interface{}, len(p))
	for i := range p {
		row := []interface{}{i + 1, p[i], q[i]}
		if lfdr != nil {
			row = append(row, lfdr[i])
		}
		if sig != nil {
			row = append(row, sig[i])
		}
		rows[i] = row
	}
	return headers, rows
}

// WriteResult exports result to path; the extension picks xlsx, csv or json
func WriteResult(path string, result *fdr.Result) error {
	switch fileType(path) {
	case "csv":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create csv")
		}
		defer f.Close()
		return WriteCSV(f, result)
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode result")
		}
		return os.WriteFile(path, data, 0o644)
	}
	return WriteXLSX(path, result)
}

// WriteCSV writes the per-test table as CSV
func WriteCSV(w io.Writer, result *fdr.Result) error {
	headers, rows := resultTable(result)
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	record := make([]string, len(headers))
	for _, row := range rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// WriteXLSX writes the per-test table to Sheet1 of a new workbook
func WriteXLSX(path string, result *fdr.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	headers, rows := resultTable(result)

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	hdr := make([]interface{}, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(Sheet, cell, &hdr); err != nil {
		return errors.Wrap(err, "write header")
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", r+1)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "save workbook")
	}
	return nil
}
