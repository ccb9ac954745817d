package model

// canonical column names of a holdings table
const (
	ColumnTicker      = "ticker"
	ColumnName        = "name"
	ColumnSector      = "sector"
	ColumnCountry     = "country"
	ColumnAssetClass  = "asset_class"
	ColumnWeight      = "weight"
	ColumnMarketValue = "market_value"
	ColumnWeightNorm  = "weight_norm"
)

// HoldingsRow is one security or manual position of a source.
// Weight is a fraction of the owning allocation.
type HoldingsRow struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Country    string  `json:"country"`
	AssetClass string  `json:"asset_class"`
	Weight     float64 `json:"weight"`
}

// Ledger is the concatenation of every component's scaled rows.
type Ledger []HoldingsRow

func (l Ledger) TotalWeight() float64 {
	total := 0.0
	for _, row := range l {
		total += row.Weight
	}
	return total
}

// RawTable is a holdings export already mapped to canonical column names.
// Cells are kept as text, numeric parsing happens in the normalizer.
type RawTable struct {
	Columns []string
	Rows    [][]string
}
