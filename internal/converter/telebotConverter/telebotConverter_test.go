package telebotConverter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_xray/internal/portfolioSandbox"
	"github.com/KotFed0t/portfolio_xray/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func views() model.Views {
	return model.Views{
		model.ViewGlobalByAsset: {
			Name:         model.ViewGlobalByAsset,
			KeyColumns:   []string{model.ColumnAssetClass},
			WeightColumn: model.ColumnWeight,
			Rows: []model.ViewRow{
				{Keys: []string{"Azionario"}, Weight: 0.8},
				{Keys: []string{"Liquidità"}, Weight: 0.2},
			},
		},
		model.ViewAllHoldings: {
			Name:         model.ViewAllHoldings,
			KeyColumns:   []string{model.ColumnTicker, model.ColumnName},
			WeightColumn: model.ColumnWeight,
			Rows: []model.ViewRow{
				{Keys: []string{"AAPL", "APPLE"}, Weight: 0.5},
				{Keys: []string{"MSFT", "MICROSOFT"}, Weight: 0.3},
				{Keys: []string{"CASH", "Cash"}, Weight: 0.2},
			},
		},
	}
}

func TestAnalysisResponse(t *testing.T) {
	result := model.AnalysisResult{
		Views:    views(),
		Failures: []model.ComponentFailure{{Index: 1, Source: "https://x", Kind: model.FailureParse}},
	}

	text, markup := AnalysisResponse(result)

	assert.Contains(t, text, "Equity allocation: 80.00%")
	assert.Contains(t, text, "Bond allocation: 0.00%")
	assert.Contains(t, text, "Top country: N/A (0.00%)")
	assert.Contains(t, text, "▸ Azionario: 80.00%")
	assert.Contains(t, text, "▸ Liquidità: 20.00%")
	assert.Contains(t, text, "#2 https://x (parse)")
	assert.NotContains(t, text, "cached")

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	first := markup.InlineKeyboard[0][0]
	assert.Equal(t, ViewTitle(model.ViewGlobalByAsset), first.Text)
	assert.Equal(t, tgCallback.ShowView, first.Unique)
	assert.Contains(t, first.Data, model.ViewGlobalByAsset)
	assert.Equal(t, ViewTitle(model.ViewAllHoldings), markup.InlineKeyboard[1][0].Text)
}

func TestAnalysisResponse_Headline(t *testing.T) {
	v := views()
	v[model.ViewGlobalByAsset] = model.AggregateView{
		Name: model.ViewGlobalByAsset,
		Rows: []model.ViewRow{
			{Keys: []string{"Azionario"}, Weight: 0.6},
			{Keys: []string{"Obbligazionario Governativo"}, Weight: 0.25},
			{Keys: []string{"Corporate Bond"}, Weight: 0.05},
			{Keys: []string{"Liquidità"}, Weight: 0.1},
		},
	}
	v[model.ViewGlobalByCountry] = model.AggregateView{
		Name: model.ViewGlobalByCountry,
		Rows: []model.ViewRow{{Keys: []string{"Stati Uniti"}, Weight: 0.42}, {Keys: []string{"Italia"}, Weight: 0.2}},
	}
	v[model.ViewGlobalBySector] = model.AggregateView{
		Name: model.ViewGlobalBySector,
		Rows: []model.ViewRow{{Keys: []string{"IT"}, Weight: 0.18}},
	}

	text, _ := AnalysisResponse(model.AnalysisResult{Views: v})

	assert.Contains(t, text, "Equity allocation: 60.00%")
	assert.Contains(t, text, "Bond allocation: 30.00%")
	assert.Contains(t, text, "Top country: Stati Uniti (42.00%)")
	assert.Contains(t, text, "Top sector: IT (18.00%)")
}

func TestAnalysisResponse_NoDataAndFailure(t *testing.T) {
	text, markup := AnalysisResponse(model.AnalysisResult{Views: model.Views{}})
	assert.True(t, strings.HasPrefix(text, NoDataMsg))
	assert.Nil(t, markup)

	text, markup = AnalysisResponse(model.AnalysisResult{Err: &model.AnalysisError{Kind: model.FailureConfig, Message: "bad weight"}})
	assert.Equal(t, "❌ Analysis failed (config): bad weight", text)
	assert.Nil(t, markup)
}

func TestViewResponse(t *testing.T) {
	text, markup := ViewResponse(views()[model.ViewAllHoldings], 2)

	assert.Contains(t, text, "1. AAPL | APPLE - 50.00%")
	assert.Contains(t, text, "2. MSFT | MICROSOFT - 30.00%")
	assert.NotContains(t, text, "CASH")
	assert.Contains(t, text, "and 1 more")
	require.NotNil(t, markup)
	assert.Equal(t, tgCallback.BackToXray, markup.InlineKeyboard[0][0].Unique)

	text, _ = ViewResponse(model.AggregateView{Name: model.ViewBondByType}, 10)
	assert.Contains(t, text, "no rows")
}

func TestViewResponse_RowsAreClamped(t *testing.T) {
	view := model.AggregateView{Name: model.ViewAllHoldings}
	for i := 0; i < 5000; i++ {
		view.Rows = append(view.Rows, model.ViewRow{
			Keys:   []string{fmt.Sprintf("T%d", i), strings.Repeat("LONG NAME ", 5), "Sector", "Country", "Azionario"},
			Weight: 0.0002,
		})
	}

	for _, limit := range []int{0, -1, 10000} {
		text, _ := ViewResponse(view, limit)
		assert.LessOrEqual(t, utf8.RuneCountInString(text), 4096, "limit %d", limit)
		assert.NotContains(t, text, fmt.Sprintf("%d. ", MaxViewRows+1), "limit %d", limit)
		assert.Contains(t, text, "more", "limit %d", limit)
	}
}

func TestSandboxResponse(t *testing.T) {
	components := []model.Component{
		{Weight: 0.6, SourceURL: "https://www.ishares.com/it/prodotti/1/"},
		{Weight: 0.3, Name: "Bitcoin", AssetClass: "Crypto"},
	}

	text := SandboxResponse(components, true)
	assert.Contains(t, text, "Sandbox")
	assert.Contains(t, text, "1. https://www.ishares.com/it/prodotti/1/ - 0.60")
	assert.Contains(t, text, "2. Bitcoin [Crypto] - 0.30")
	assert.Contains(t, text, "Total weight: 0.90 (0.10 left)")

	components[1].Weight = 0.4
	text = SandboxResponse(components, false)
	assert.Contains(t, text, "Portfolio file")
	assert.Contains(t, text, "Total weight: 1.00 (perfect)")

	assert.Contains(t, SandboxResponse(nil, true), "no components")
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "no data", err: service.ErrNoData, want: NoDataMsg},
		{name: "wrapped no data", err: fmt.Errorf("report: %w", service.ErrNoData), want: NoDataMsg},
		{name: "publishing", err: service.ErrPublishingDisabled, want: "Publishing is not configured."},
		{name: "portfolio file", err: fmt.Errorf("%w: open portfolio.yaml", service.ErrPortfolioUnavailable), want: "The portfolio file can't be read."},
		{name: "sandbox input", err: fmt.Errorf("%w: 7", portfolioSandbox.ErrBadIndex), want: "⚠️ no component with this number: 7"},
		{name: "analysis", err: &model.AnalysisError{Kind: model.FailureInternal, Message: "boom"}, want: "❌ Analysis failed (internal): boom"},
		{name: "other", err: fmt.Errorf("unexpected"), want: InternalErrMsg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorText(tt.err))
		})
	}
}

func TestFormatWeight(t *testing.T) {
	assert.Equal(t, "12.35%", FormatWeight(0.12345))
	assert.Equal(t, "0.00%", FormatWeight(0))
}
