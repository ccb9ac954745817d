package aggregator

import (
	"sort"
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/model"
)

const equityAssetClass = "azionario"

var bondMarkers = []string{"obbligazionario", "bond"}

// weightedRow is a ledger row with the weight used by the current view.
type weightedRow struct {
	model.HoldingsRow
	value float64
}

type keyFunc func(row model.HoldingsRow) []string

// BuildViews computes every aggregate view of the ledger. The ledger is not
// modified. An empty ledger yields an empty map.
func BuildViews(ledger model.Ledger) model.Views {
	if len(ledger) == 0 {
		return model.Views{}
	}

	all := make([]weightedRow, 0, len(ledger))
	for _, row := range ledger {
		all = append(all, weightedRow{HoldingsRow: row, value: row.Weight})
	}

	equities := normalizeSubset(filterRows(ledger, IsEquity))
	bonds := normalizeSubset(filterRows(ledger, IsBond))

	byTicker := func(r model.HoldingsRow) []string { return []string{r.Ticker, r.Name} }
	bySector := func(r model.HoldingsRow) []string { return []string{r.Sector} }
	byCountry := func(r model.HoldingsRow) []string { return []string{r.Country} }
	byAsset := func(r model.HoldingsRow) []string { return []string{r.AssetClass} }

	sectorCol := []string{model.ColumnSector}
	countryCol := []string{model.ColumnCountry}

	return model.Views{
		model.ViewGlobalByAsset:   groupSort(model.ViewGlobalByAsset, all, []string{model.ColumnAssetClass}, byAsset, model.ColumnWeight),
		model.ViewGlobalByCountry: groupSort(model.ViewGlobalByCountry, all, countryCol, byCountry, model.ColumnWeight),
		model.ViewGlobalBySector:  groupSort(model.ViewGlobalBySector, all, sectorCol, bySector, model.ColumnWeight),

		model.ViewEquityByStock:   groupSort(model.ViewEquityByStock, equities, []string{model.ColumnTicker, model.ColumnName}, byTicker, model.ColumnWeightNorm),
		model.ViewEquityBySector:  groupSort(model.ViewEquityBySector, equities, sectorCol, bySector, model.ColumnWeightNorm),
		model.ViewEquityByCountry: groupSort(model.ViewEquityByCountry, equities, countryCol, byCountry, model.ColumnWeightNorm),

		model.ViewBondByType:    groupSort(model.ViewBondByType, bonds, sectorCol, bySector, model.ColumnWeightNorm),
		model.ViewBondByCountry: groupSort(model.ViewBondByCountry, bonds, countryCol, byCountry, model.ColumnWeightNorm),

		model.ViewAllHoldings: allHoldings(ledger),
	}
}

// IsEquity matches the equity asset class exactly, ignoring case.
func IsEquity(assetClass string) bool {
	return strings.ToLower(assetClass) == equityAssetClass
}

// IsBond matches any asset class mentioning a bond marker.
func IsBond(assetClass string) bool {
	lower := strings.ToLower(assetClass)
	for _, marker := range bondMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func filterRows(ledger model.Ledger, match func(assetClass string) bool) []model.HoldingsRow {
	var res []model.HoldingsRow
	for _, row := range ledger {
		if match(row.AssetClass) {
			res = append(res, row)
		}
	}
	return res
}

// normalizeSubset rescales the subset weights so they sum to 1. With a non
// positive total every normalized weight is 0.
func normalizeSubset(rows []model.HoldingsRow) []weightedRow {
	total := 0.0
	for _, row := range rows {
		total += row.Weight
	}

	res := make([]weightedRow, 0, len(rows))
	for _, row := range rows {
		norm := 0.0
		if total > 0 {
			norm = row.Weight / total
		}
		res = append(res, weightedRow{HoldingsRow: row, value: norm})
	}
	return res
}

// groupSort sums values per group key. Groups keep the order of their first
// appearance and are then stable sorted by weight descending.
func groupSort(name string, rows []weightedRow, keyColumns []string, key keyFunc, weightColumn string) model.AggregateView {
	view := model.AggregateView{
		Name:         name,
		KeyColumns:   keyColumns,
		WeightColumn: weightColumn,
		Rows:         []model.ViewRow{},
	}

	positions := make(map[string]int)
	for _, row := range rows {
		keys := key(row.HoldingsRow)
		groupKey := strings.Join(keys, "\x00")

		pos, ok := positions[groupKey]
		if !ok {
			pos = len(view.Rows)
			positions[groupKey] = pos
			view.Rows = append(view.Rows, model.ViewRow{Keys: keys})
		}
		view.Rows[pos].Weight += row.value
	}

	sortDesc(view.Rows)
	return view
}

func allHoldings(ledger model.Ledger) model.AggregateView {
	view := model.AggregateView{
		Name: model.ViewAllHoldings,
		KeyColumns: []string{
			model.ColumnTicker,
			model.ColumnName,
			model.ColumnSector,
			model.ColumnCountry,
			model.ColumnAssetClass,
		},
		WeightColumn: model.ColumnWeight,
		Rows:         make([]model.ViewRow, 0, len(ledger)),
	}

	for _, row := range ledger {
		view.Rows = append(view.Rows, model.ViewRow{
			Keys:   []string{row.Ticker, row.Name, row.Sector, row.Country, row.AssetClass},
			Weight: row.Weight,
		})
	}

	sortDesc(view.Rows)
	return view
}

func sortDesc(rows []model.ViewRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Weight > rows[j].Weight
	})
}
