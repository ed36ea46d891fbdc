package google

import (
	"fmt"
	"strconv"
	"strings"

	ports "gagyebu/internal/sheets"
)

// parseValues converts a values matrix as returned by the Sheets API into a
// Table. The first row is the header.
func parseValues(values [][]interface{}) ports.Table {
	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = toStrings(row)
	}
	return ports.NewTable(rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders a cell without exponent notation: the API decodes every
// number as float64 and fmt would print 3000000 as 3e+06.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
