package kpi

import (
	"strconv"
	"strings"
)

// Periods are the row keys recognised in the sheet, in display order
var Periods = []string{"All Time", "Last 30 Days", "Last 7 Days", "Last 3 Days", "Last 24 Hours"}

// TargetSuffix is appended to a metric header to name its target
const TargetSuffix = " Target"

// Report maps period -> column -> value
type Report map[string]map[string]float64

// EmptyReport returns a report holding every period with no values
func EmptyReport() Report {
	report := make(Report, len(Periods))
	for _, p := range Periods {
		report[p] = map[string]float64{}
	}
	return report
}

// Process converts raw sheet rows into a Report. Every period is present in
// the result even when the sheet has no row for it. Metric cells that are
// empty or not integers count as 0; target cells that are empty or not
// numeric are skipped.
func Process(rows [][]string) Report {
	report := EmptyReport()
	if len(rows) == 0 {
		return report
	}

	headers := rows[0]
	for _, period := range Periods {
		row := findRow(rows[1:], period)
		if row == nil {
			continue
		}

		values := report[period]
		for i := 1; i < len(headers) && i < len(row); i += 2 {
			header := strings.TrimSpace(headers[i])
			if header == "" {
				continue
			}
			values[header] = float64(parseMetric(row[i]))

			if i+1 < len(row) {
				if target, ok := parseTarget(row[i+1]); ok {
					values[header+TargetSuffix] = target
				}
			}
		}
	}

	return report
}

func findRow(rows [][]string, period string) []string {
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == period {
			return row
		}
	}
	return nil
}

func parseMetric(cell string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTarget(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
