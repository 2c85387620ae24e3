package sheets

import (
	"context"
	"fmt"
	"strconv"
)

// GridSource fetches the cell grid of an A1 range. Row 0 of the returned
// grid is the header row. Trailing empty cells may be omitted from a row.
type GridSource interface {
	FetchGrid(ctx context.Context, a1Range string) ([][]string, error)
	Name() string
}

// stringifyCell renders a Sheets API cell value as text
func stringifyCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// toGrid converts the API's [][]interface{} value matrix to strings
func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = stringifyCell(v)
		}
		grid[i] = cells
	}
	return grid
}
