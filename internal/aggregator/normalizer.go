package aggregator

import (
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/shopspring/decimal"
)

// UnknownValue replaces text fields absent from a source.
const UnknownValue = "Unknown"

// Normalize turns a raw holdings table into canonical rows whose weights sum
// to 1. Missing columns are filled with UnknownValue, rows without a name are
// dropped. A table whose total weight is not positive is returned as is.
func Normalize(table model.RawTable) []model.HoldingsRow {
	idx := columnIndex(table.Columns)

	rows := make([]model.HoldingsRow, 0, len(table.Rows))
	total := 0.0

	for _, record := range table.Rows {
		name := cell(record, idx, model.ColumnName)
		if name == "" {
			continue
		}

		row := model.HoldingsRow{
			Ticker:     orUnknown(cell(record, idx, model.ColumnTicker)),
			Name:       name,
			Sector:     orUnknown(cell(record, idx, model.ColumnSector)),
			Country:    orUnknown(cell(record, idx, model.ColumnCountry)),
			AssetClass: orUnknown(cell(record, idx, model.ColumnAssetClass)),
			Weight:     ParseWeight(cell(record, idx, model.ColumnWeight)),
		}
		total += row.Weight
		rows = append(rows, row)
	}

	if total > 0 {
		for i := range rows {
			rows[i].Weight /= total
		}
	}

	return rows
}

// ParseWeight reads a weight written either in plain or in european notation
// ("1.234,56"). Values that can not be parsed count as 0.
func ParseWeight(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer("%", "", " ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" {
		return 0
	}

	switch {
	case strings.Contains(s, ","):
		// dots are thousands separators, the comma is the decimal mark
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}

	return d.InexactFloat64()
}

func columnIndex(columns []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, col := range columns {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func cell(record []string, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(record) {
		return ""
	}

	v := strings.TrimSpace(record[i])
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}

func orUnknown(v string) string {
	if v == "" {
		return UnknownValue
	}
	return v
}
