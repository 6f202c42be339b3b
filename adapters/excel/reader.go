package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxXLSRows caps how many rows are read from legacy .xls workbooks
const maxXLSRows = 100000

// SheetReader reads the first worksheet of an uploaded workbook into raw
// string cells
type SheetReader struct{}

// NewSheetReader creates a new sheet reader
func NewSheetReader() *SheetReader {
	return &SheetReader{}
}

// ReadFile reads rows from a workbook on disk
func (r *SheetReader) ReadFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("spreadsheet file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer file.Close()
	return r.ReadRows(file, filepath.Base(path))
}

// ReadRows reads rows from reader, picking the format from filename's
// extension: .xls via extrame/xls, .csv via encoding/csv, anything else
// as .xlsx
func (r *SheetReader) ReadRows(reader io.Reader, filename string) ([][]string, error) {
	startTime := time.Now()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var rows [][]string
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xls":
		rows, err = r.readXLS(data)
	case ".csv":
		rows, err = r.readCSV(data)
	default:
		rows, err = r.readXLSX(data)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}

	log.Printf("[SheetReader] %s read in %.2fms (%d rows)",
		filename, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *SheetReader) readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheetName, err)
	}
	return rows, nil
}

func (r *SheetReader) readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open XLS file: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return workbook.ReadAllCells(maxXLSRows), nil
}

func (r *SheetReader) readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// IsSpreadsheet reports whether filename has an accepted upload extension
func IsSpreadsheet(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}
