package dataprocessing

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/text/unicode/norm"
)

// UnknownLabel buckets records whose grouping field is missing
const UnknownLabel = "Unknown"

// Schema names the columns the KPIs are computed from
type Schema struct {
	Amount    string
	Status    string
	Channel   string
	Rep       string
	Date      string
	WonStatus string
}

// DefaultSchema returns the column names of the deals sheet
func DefaultSchema() Schema {
	return Schema{
		Amount:    "Montant",
		Status:    "Statut",
		Channel:   "Canal",
		Rep:       "Commercial",
		Date:      "Date",
		WonStatus: "Gagné",
	}
}

// Aggregator computes dashboard KPIs from normalized records.
// It keeps no state between calls.
type Aggregator struct {
	schema   Schema
	wonLabel string
}

// NewAggregator creates an aggregator for the given column schema
func NewAggregator(schema Schema) *Aggregator {
	return &Aggregator{
		schema:   schema,
		wonLabel: foldStatus(schema.WonStatus),
	}
}

// foldStatus trims, lower-cases and NFC-normalizes a status label so that
// composed and decomposed accents compare equal
func foldStatus(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// isWon reports whether a record's status is the won label
func (a *Aggregator) isWon(r Record) bool {
	return foldStatus(r.Text(a.schema.Status, "")) == a.wonLabel
}

// sum adds values in order. An empty input sums to 0.
func sum(values stats.Float64Data) float64 {
	if len(values) == 0 {
		return 0
	}
	total, _ := stats.Sum(values)
	return total
}

// round rounds to the given number of decimal places
func round(f float64, places int) float64 {
	r, err := stats.Round(f, places)
	if err != nil {
		return f
	}
	return r
}

// TotalRevenue sums the amount field across all records
func (a *Aggregator) TotalRevenue(records []Record) float64 {
	amounts := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		amounts = append(amounts, r.Number(a.schema.Amount))
	}
	return sum(amounts)
}

// TotalDeals counts records
func (a *Aggregator) TotalDeals(records []Record) int {
	return len(records)
}

// DealsWon counts records whose status is the won label
func (a *Aggregator) DealsWon(records []Record) int {
	won := 0
	for _, r := range records {
		if a.isWon(r) {
			won++
		}
	}
	return won
}

// ConversionRate returns won/total as a percentage with one decimal.
// A zero total yields 0.
func ConversionRate(won, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return round(float64(won)/float64(total)*100, 1)
}

// RevenueByChannel sums amounts grouped by channel
func (a *Aggregator) RevenueByChannel(records []Record) map[string]float64 {
	return a.revenueBy(records, a.schema.Channel)
}

// RevenueByRep sums amounts grouped by sales representative
func (a *Aggregator) RevenueByRep(records []Record) map[string]float64 {
	return a.revenueBy(records, a.schema.Rep)
}

func (a *Aggregator) revenueBy(records []Record, field string) map[string]float64 {
	groups := make(map[string]stats.Float64Data)
	for _, r := range records {
		key := r.Text(field, UnknownLabel)
		groups[key] = append(groups[key], r.Number(a.schema.Amount))
	}

	result := make(map[string]float64, len(groups))
	for key, amounts := range groups {
		result[key] = sum(amounts)
	}
	return result
}

// StatusDistribution counts records grouped by status
func (a *Aggregator) StatusDistribution(records []Record) map[string]int {
	result := make(map[string]int)
	for _, r := range records {
		result[r.Text(a.schema.Status, UnknownLabel)]++
	}
	return result
}

// TrendPoint is the won revenue booked on one date
type TrendPoint struct {
	Date   string
	Amount float64
}

// Trend is a date-ordered revenue series. It encodes to JSON as an object
// whose keys keep the series order.
type Trend []TrendPoint

// MarshalJSON encodes the trend as {"date": amount, ...}
func (t Trend) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Date)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dates returns the trend's keys in order
func (t Trend) Dates() []string {
	out := make([]string, len(t))
	for i, p := range t {
		out[i] = p.Date
	}
	return out
}

// RevenueTrend sums won amounts per date, ordered by ascending date string.
// Dates are not parsed; ordering is lexicographic.
func (a *Aggregator) RevenueTrend(records []Record) Trend {
	groups := make(map[string]stats.Float64Data)
	for _, r := range records {
		if !a.isWon(r) {
			continue
		}
		date := r.Text(a.schema.Date, UnknownLabel)
		groups[date] = append(groups[date], r.Number(a.schema.Amount))
	}

	trend := make(Trend, 0, len(groups))
	for date, amounts := range groups {
		trend = append(trend, TrendPoint{Date: date, Amount: sum(amounts)})
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date < trend[j].Date
	})
	return trend
}
