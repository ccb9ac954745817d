package model

const (
	ViewGlobalByAsset   = "global_by_asset"
	ViewGlobalByCountry = "global_by_country"
	ViewGlobalBySector  = "global_by_sector"
	ViewEquityByStock   = "equity_by_stock"
	ViewEquityBySector  = "equity_by_sector"
	ViewEquityByCountry = "equity_by_country"
	ViewBondByType      = "bond_by_type"
	ViewBondByCountry   = "bond_by_country"
	ViewAllHoldings     = "all_holdings"
)

// ViewOrder is the presentation order of the views.
var ViewOrder = []string{
	ViewGlobalByAsset,
	ViewGlobalByCountry,
	ViewGlobalBySector,
	ViewEquityByStock,
	ViewEquityBySector,
	ViewEquityByCountry,
	ViewBondByType,
	ViewBondByCountry,
	ViewAllHoldings,
}

type ViewRow struct {
	Keys   []string `json:"keys"`
	Weight float64  `json:"weight"`
}

// AggregateView is a grouped table sorted by its weight column descending.
type AggregateView struct {
	Name         string    `json:"name"`
	KeyColumns   []string  `json:"key_columns"`
	WeightColumn string    `json:"weight_column"`
	Rows         []ViewRow `json:"rows"`
}

func (v AggregateView) TotalWeight() float64 {
	total := 0.0
	for _, row := range v.Rows {
		total += row.Weight
	}
	return total
}

// Views maps a view name to its table. An empty map means there is no data.
type Views map[string]AggregateView

// Ordered returns the views in ViewOrder, skipping absent ones.
func (v Views) Ordered() []AggregateView {
	res := make([]AggregateView, 0, len(v))
	for _, name := range ViewOrder {
		if view, ok := v[name]; ok {
			res = append(res, view)
		}
	}
	return res
}

// Headline is the short summary shown above the views.
type Headline struct {
	Equity           float64 `json:"equity"`
	Bond             float64 `json:"bond"`
	TopCountry       string  `json:"top_country"`
	TopCountryWeight float64 `json:"top_country_weight"`
	TopSector        string  `json:"top_sector"`
	TopSectorWeight  float64 `json:"top_sector_weight"`
}
