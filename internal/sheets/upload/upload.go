// Package upload reads user-supplied spreadsheet files into a sheets.Table.
package upload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

var errNoSheets = errors.New("workbook has no sheets")

// Supported reports whether the file name has an extension Read accepts.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// Read parses an uploaded file by extension: the first sheet of an Excel
// workbook or a comma separated file. Parse failures are returned as
// *core.FileReadError; unknown extensions as core.ErrUnsupportedFile.
func Read(name string, r io.Reader) (sheets.Table, error) {
	var (
		values [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		values, err = readWorkbook(r)
	case ".csv":
		values, err = readCSV(r)
	default:
		return sheets.Table{}, fmt.Errorf("%w: %q", core.ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return sheets.Table{}, &core.FileReadError{Name: name, Err: err}
	}
	return sheets.NewTable(values), nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, errNoSheets
	}
	// Raw values keep dates as serial numbers and amounts without grouping.
	return f.GetRows(names[0], excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	// Drop a UTF-8 byte order mark so the first header matches.
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
