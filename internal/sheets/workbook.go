package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "sheetkpi/internal/errors"
)

// WorkbookSource reads ranges from a local xlsx file with the same A1
// semantics as the Sheets API
type WorkbookSource struct {
	path   string
	logger *slog.Logger
}

// NewWorkbookSource creates a source for the workbook at path
func NewWorkbookSource(path string, logger *slog.Logger) *WorkbookSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookSource{
		path:   path,
		logger: logger.With(slog.String("component", "workbook_source")),
	}
}

// Name identifies the source in logs and metrics
func (w *WorkbookSource) Name() string {
	return "workbook"
}

// FetchGrid opens the workbook and returns the cells of a1Range.
// Trailing empty rows are dropped.
func (w *WorkbookSource) FetchGrid(ctx context.Context, a1Range string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng, err := ParseA1Range(a1Range)
	if err != nil {
		return nil, apperrors.NewParsingError("invalid range", err).With("range", a1Range)
	}

	if _, err := os.Stat(w.path); err != nil {
		return nil, apperrors.NewStorageError("workbook not readable", err).With("path", w.path)
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).With("path", w.path)
	}
	defer f.Close()

	sheet := rng.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			With("path", w.path)
	}

	grid := rng.Slice(rows)
	w.logger.DebugContext(ctx, "workbook range read",
		slog.String("path", w.path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(grid)))

	return grid, nil
}

// A1Range is a parsed A1 reference. Zero bounds are open ended; columns
// and rows are 1-based.
type A1Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseA1Range parses references such as "Raw_Data!A:F", "'My Sheet'!B2:D10"
// or a bare sheet name
func ParseA1Range(s string) (A1Range, error) {
	var r A1Range
	s = strings.TrimSpace(s)
	if s == "" {
		return r, fmt.Errorf("empty range")
	}

	ref := s
	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		r.Sheet = unquoteSheet(s[:idx])
		ref = s[idx+1:]
	} else if !looksLikeCellRef(s) {
		r.Sheet = unquoteSheet(s)
		return r, nil
	}

	if ref == "" {
		return r, nil
	}

	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return r, fmt.Errorf("malformed range %q", s)
	}

	var err error
	if r.StartCol, r.StartRow, err = parseCellRef(parts[0]); err != nil {
		return r, err
	}
	if len(parts) == 1 {
		r.EndCol, r.EndRow = r.StartCol, r.StartRow
		return r, nil
	}
	if r.EndCol, r.EndRow, err = parseCellRef(parts[1]); err != nil {
		return r, err
	}
	if (r.EndCol > 0 && r.StartCol > r.EndCol) || (r.EndRow > 0 && r.StartRow > r.EndRow) {
		return r, fmt.Errorf("range %q ends before it starts", s)
	}
	return r, nil
}

// Slice cuts the range out of a full sheet grid
func (r A1Range) Slice(rows [][]string) [][]string {
	first := max(r.StartRow, 1) - 1
	last := len(rows)
	if r.EndRow > 0 && r.EndRow < last {
		last = r.EndRow
	}
	if first >= last {
		return [][]string{}
	}

	startCol := max(r.StartCol, 1) - 1
	grid := make([][]string, 0, last-first)
	for _, row := range rows[first:last] {
		end := len(row)
		if r.EndCol > 0 && r.EndCol < end {
			end = r.EndCol
		}
		cells := []string{}
		if startCol < end {
			cells = append(cells, row[startCol:end]...)
		}
		grid = append(grid, trimTrailingEmpty(cells))
	}

	for len(grid) > 0 && len(grid[len(grid)-1]) == 0 {
		grid = grid[:len(grid)-1]
	}
	return grid
}

func parseCellRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	letters, digits := ref[:i], ref[i:]
	if letters == "" && digits == "" {
		return 0, 0, fmt.Errorf("empty cell reference")
	}
	if letters != "" {
		if col, err = excelize.ColumnNameToNumber(letters); err != nil {
			return 0, 0, err
		}
	}
	if digits != "" {
		if row, err = strconv.Atoi(digits); err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid row in cell reference %q", ref)
		}
	}
	return col, row, nil
}

// looksLikeCellRef reports whether s is a sheet-less reference like "A1:B2"
func looksLikeCellRef(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	for _, part := range strings.Split(s, ":") {
		if _, _, err := parseCellRef(part); err != nil {
			return false
		}
	}
	return true
}

func unquoteSheet(name string) string {
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}

func trimTrailingEmpty(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	return cells[:end]
}
