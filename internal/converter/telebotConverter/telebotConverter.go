package telebotConverter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/aggregator"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_xray/internal/portfolioSandbox"
	"github.com/KotFed0t/portfolio_xray/internal/service"
	tele "gopkg.in/telebot.v4"
)

const (
	InternalErrMsg = "something went wrong..."
	NoDataMsg      = "No holdings data: every component failed or the portfolio is empty."
)

const (
	// MaxViewRows caps the rows of a view message whatever TELEGRAM_VIEW_ROWS says
	MaxViewRows = 50
	// telegram rejects messages longer than 4096 characters
	maxMessageLen = 3800
)

var viewTitles = map[string]string{
	model.ViewGlobalByAsset:   "Asset classes",
	model.ViewGlobalByCountry: "Countries",
	model.ViewGlobalBySector:  "Sectors",
	model.ViewEquityByStock:   "Equity: stocks",
	model.ViewEquityBySector:  "Equity: sectors",
	model.ViewEquityByCountry: "Equity: countries",
	model.ViewBondByType:      "Bonds: types",
	model.ViewBondByCountry:   "Bonds: countries",
	model.ViewAllHoldings:     "All holdings",
}

func ViewTitle(name string) string {
	if title, ok := viewTitles[name]; ok {
		return title
	}
	return name
}

func FormatWeight(weight float64) string {
	return fmt.Sprintf("%.2f%%", weight*100)
}

func StartText() string {
	var sb strings.Builder
	sb.WriteString("📊 Portfolio X-Ray\n\n")
	sb.WriteString("/xray - look-through analysis of the portfolio\n")
	sb.WriteString("/report - xlsx report with every view\n")
	sb.WriteString("/publish - upload the report to Google Drive\n")
	sb.WriteString("/use_cache - reuse downloaded holdings files\n")
	sb.WriteString("/force_download - always download fresh holdings files\n")
	sb.WriteString("/refresh - drop cached views and recompute\n\n")
	sb.WriteString("Sandbox (your portfolio.yaml is never changed):\n")
	sb.WriteString("/portfolio - components in use and their total weight\n")
	sb.WriteString("/set <number> <weight> - change a weight\n")
	sb.WriteString("/add <weight> <url> - add an iShares fund\n")
	sb.WriteString("/manual <weight> <asset class> <name> - add a manual asset\n")
	sb.WriteString("/remove <number> - remove a component\n")
	sb.WriteString("/reset - back to portfolio.yaml\n")
	sb.WriteString("/export - sandbox as a portfolio.yaml file\n")
	return sb.String()
}

// AnalysisResponse renders the asset class summary with a button per view.
func AnalysisResponse(result model.AnalysisResult) (text string, markup *tele.ReplyMarkup) {
	if result.Failed() {
		return ErrorText(result.Err), nil
	}

	var sb strings.Builder
	if result.NoData() {
		sb.WriteString(NoDataMsg + "\n")
		writeFailures(&sb, result.Failures)
		return sb.String(), nil
	}

	h := aggregator.BuildHeadline(result.Views)
	sb.WriteString("📊 Portfolio X-Ray\n\n")
	sb.WriteString(fmt.Sprintf("Equity allocation: %s\n", FormatWeight(h.Equity)))
	sb.WriteString(fmt.Sprintf("Bond allocation: %s\n", FormatWeight(h.Bond)))
	sb.WriteString(fmt.Sprintf("Top country: %s (%s)\n", h.TopCountry, FormatWeight(h.TopCountryWeight)))
	sb.WriteString(fmt.Sprintf("Top sector: %s (%s)\n\n", h.TopSector, FormatWeight(h.TopSectorWeight)))
	if view, ok := result.Views[model.ViewGlobalByAsset]; ok {
		for _, row := range view.Rows {
			sb.WriteString(fmt.Sprintf("▸ %s: %s\n", strings.Join(row.Keys, " / "), FormatWeight(row.Weight)))
		}
	}
	if result.Cached {
		sb.WriteString("\n(cached)\n")
	}
	writeFailures(&sb, result.Failures)

	markup = &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(model.ViewOrder))
	for _, view := range result.Views.Ordered() {
		rows = append(rows, markup.Row(markup.Data(ViewTitle(view.Name), tgCallback.ShowView, view.Name)))
	}
	markup.Inline(rows...)

	return sb.String(), markup
}

// ViewResponse renders the first limit rows of a view. limit is clamped to
// MaxViewRows and rows stop early when the message would get too long.
func ViewResponse(view model.AggregateView, limit int) (text string, markup *tele.ReplyMarkup) {
	if limit <= 0 || limit > MaxViewRows {
		limit = MaxViewRows
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 %s\n\n", ViewTitle(view.Name)))

	if len(view.Rows) == 0 {
		sb.WriteString("no rows\n")
	}

	for i, row := range view.Rows {
		line := fmt.Sprintf("%d. %s - %s\n", i+1, strings.Join(row.Keys, " | "), FormatWeight(row.Weight))
		if i >= limit || sb.Len()+len(line) > maxMessageLen {
			sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(view.Rows)-i))
			break
		}
		sb.WriteString(line)
	}

	markup = &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("⬅️ Back", tgCallback.BackToXray)))

	return sb.String(), markup
}

// SandboxResponse lists the components in use with their total weight.
func SandboxResponse(components []model.Component, sandbox bool) string {
	var sb strings.Builder
	if sandbox {
		sb.WriteString("🧪 Sandbox portfolio\n\n")
	} else {
		sb.WriteString("📁 Portfolio file\n\n")
	}

	if len(components) == 0 {
		sb.WriteString("no components\n")
	}

	total := 0.0
	for i, c := range components {
		total += c.Weight
		line := fmt.Sprintf("%d. %s - %.2f", i+1, c.Label(), c.Weight)
		if !c.IsFund() && c.AssetClass != "" {
			line = fmt.Sprintf("%d. %s [%s] - %.2f", i+1, c.Label(), c.AssetClass, c.Weight)
		}
		if sb.Len()+len(line) > maxMessageLen {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(components)-i))
			break
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString(fmt.Sprintf("\nTotal weight: %.2f", total))
	if math.Abs(1-total) < 1e-9 {
		sb.WriteString(" (perfect)\n")
	} else {
		sb.WriteString(fmt.Sprintf(" (%.2f left)\n", 1-total))
	}

	return sb.String()
}

func ErrorText(err error) string {
	var analysisErr *model.AnalysisError
	switch {
	case errors.As(err, &analysisErr):
		return fmt.Sprintf("❌ Analysis failed (%s): %s", analysisErr.Kind, analysisErr.Message)
	case errors.Is(err, service.ErrNoData):
		return NoDataMsg
	case errors.Is(err, service.ErrPublishingDisabled):
		return "Publishing is not configured."
	case errors.Is(err, service.ErrPortfolioUnavailable):
		return "The portfolio file can't be read."
	case errors.Is(err, portfolioSandbox.ErrBadArgs),
		errors.Is(err, portfolioSandbox.ErrBadIndex),
		errors.Is(err, portfolioSandbox.ErrBadWeight):
		return "⚠️ " + err.Error()
	default:
		return InternalErrMsg
	}
}

func writeFailures(sb *strings.Builder, failures []model.ComponentFailure) {
	if len(failures) == 0 {
		return
	}
	sb.WriteString("\n⚠️ Skipped components:\n")
	for _, f := range failures {
		sb.WriteString(fmt.Sprintf(" - #%d %s (%s)\n", f.Index+1, f.Source, f.Kind))
	}
}
