package aggregator

import "github.com/KotFed0t/portfolio_xray/internal/model"

// NotAvailable names the top country or sector when there is none.
const NotAvailable = "N/A"

// BuildHeadline reads the equity and bond allocation from global_by_asset and
// the leading country and sector from the global views.
func BuildHeadline(views model.Views) model.Headline {
	h := model.Headline{TopCountry: NotAvailable, TopSector: NotAvailable}

	for _, row := range views[model.ViewGlobalByAsset].Rows {
		if len(row.Keys) == 0 {
			continue
		}
		switch {
		case IsEquity(row.Keys[0]):
			h.Equity += row.Weight
		case IsBond(row.Keys[0]):
			h.Bond += row.Weight
		}
	}

	if rows := views[model.ViewGlobalByCountry].Rows; len(rows) > 0 && len(rows[0].Keys) > 0 {
		h.TopCountry, h.TopCountryWeight = rows[0].Keys[0], rows[0].Weight
	}
	if rows := views[model.ViewGlobalBySector].Rows; len(rows) > 0 && len(rows[0].Keys) > 0 {
		h.TopSector, h.TopSectorWeight = rows[0].Keys[0], rows[0].Weight
	}

	return h
}
