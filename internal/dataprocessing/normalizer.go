package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// FieldTypes declares the kind of each column, keyed by header name.
// Keys are matched case-insensitively; unlisted columns stay text.
type FieldTypes map[string]FieldKind

// DefaultFieldTypes types the amount column as numeric
func DefaultFieldTypes() FieldTypes {
	return FieldTypes{"Montant": KindNumber}
}

// NormalizerConfig holds configuration options for the Normalizer
type NormalizerConfig struct {
	FieldTypes FieldTypes
}

// DefaultNormalizerConfig returns the configuration used by the sync pipeline
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{FieldTypes: DefaultFieldTypes()}
}

// Normalizer converts a raw sheet grid (first row is the header) into typed
// records. It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	logger *slog.Logger
	kinds  map[string]FieldKind
}

// NewNormalizer creates a normalizer for the given field types
func NewNormalizer(logger *slog.Logger, config NormalizerConfig) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	kinds := make(map[string]FieldKind, len(config.FieldTypes))
	for name, kind := range config.FieldTypes {
		kinds[strings.ToLower(name)] = kind
	}
	return &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
		kinds:  kinds,
	}
}

// Normalize turns grid into one record per data row, in row order.
// Short rows are padded with empty cells; cells past the header are ignored.
// An empty or header-only grid yields an empty slice.
func (n *Normalizer) Normalize(ctx context.Context, grid [][]string) []Record {
	if len(grid) == 0 {
		return []Record{}
	}

	headers := grid[0]
	kinds := make([]FieldKind, len(headers))
	for i, h := range headers {
		kinds[i] = n.kinds[strings.ToLower(h)]
	}

	records := make([]Record, 0, len(grid)-1)
	coerced := 0
	for _, row := range grid[1:] {
		values := make([]Value, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			switch kinds[i] {
			case KindNumber:
				f, ok := parseNumber(cell)
				if !ok && strings.TrimSpace(cell) != "" {
					coerced++
				}
				values[i] = NumberValue(f)
			default:
				values[i] = TextValue(cell)
			}
		}
		records = append(records, NewRecord(headers, values))
	}

	n.logger.DebugContext(ctx, "normalized sheet rows",
		slog.Int("header_count", len(headers)),
		slog.Int("record_count", len(records)),
		slog.Int("coerced_cells", coerced))

	return records
}

// UniqueValues collects the distinct non-empty values of field across
// records, sorted lexicographically. Missing fields, empty strings and
// numeric zero are skipped.
func UniqueValues(records []Record, field string) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		v, ok := r.Get(field)
		if !ok || v.IsZero() {
			continue
		}
		seen[v.String()] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
