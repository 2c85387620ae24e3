package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// DealsHeader is the header row of the deals sheet
var DealsHeader = []string{"Date", "Montant", "Statut", "Canal", "Commercial"}

// DealsGrid returns a two-deal grid: one won on the web, one lost by phone
func DealsGrid() [][]string {
	return [][]string{
		DealsHeader,
		{"2024-01-01", "100", "Gagné", "Web", "Alice"},
		{"2024-01-02", "50", "Perdu", "Phone", "Bob"},
	}
}

// SheetValues converts a string grid to the [][]interface{} shape returned
// by the Sheets API
func SheetValues(grid [][]string) [][]interface{} {
	out := make([][]interface{}, len(grid))
	for i, row := range grid {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		out[i] = cells
	}
	return out
}

// WriteWorkbook saves grid to a new xlsx file under t.TempDir() on the
// named sheet and returns its path
func WriteWorkbook(t *testing.T, sheet string, grid [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}

	for i, row := range grid {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellStr(sheet, ref, cell); err != nil {
				t.Fatalf("set cell %s: %v", ref, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), fmt.Sprintf("%s.xlsx", sheet))
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
