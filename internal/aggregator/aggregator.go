package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 4
	manualSectorValue  = "Manual"
	manualTicker       = "UNKNOWN"
	manualAssetClass   = "Other"
)

// SourceTableResolver turns a component source url into a holdings table.
type SourceTableResolver interface {
	Resolve(ctx context.Context, sourceURL string, useCache bool) (model.RawTable, error)
}

type Aggregator struct {
	resolver    SourceTableResolver
	concurrency int
}

func New(resolver SourceTableResolver, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Aggregator{resolver: resolver, concurrency: concurrency}
}

type componentResult struct {
	rows    []model.HoldingsRow
	failure *model.ComponentFailure
}

// Aggregate builds the unified ledger of all components. A component whose
// source fails is skipped and reported in the returned failures; an error is
// returned only for an invalid component or a cancelled context.
func (a *Aggregator) Aggregate(ctx context.Context, components []model.Component, useCache bool) (model.Ledger, []model.ComponentFailure, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Aggregator.Aggregate"

	slog.Debug("Aggregate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("components", len(components)))

	if err := ValidateComponents(components); err != nil {
		slog.Error("invalid portfolio components", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, nil, err
	}

	results := make([]componentResult, len(components))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, component := range components {
		if !component.IsFund() {
			results[i] = componentResult{rows: []model.HoldingsRow{ManualRow(component)}}
			continue
		}

		g.Go(func() error {
			rows, err := a.resolveComponent(gctx, component, useCache)
			if err != nil {
				slog.Error(
					"component skipped",
					slog.String("rqID", rqID),
					slog.String("op", op),
					slog.Int("index", i),
					slog.String("source", component.Label()),
					slog.String("err", err.Error()),
				)
				results[i] = componentResult{failure: &model.ComponentFailure{
					Index:  i,
					Source: component.Label(),
					Kind:   failureKind(err),
					Reason: err.Error(),
				}}
				return nil
			}
			results[i] = componentResult{rows: rows}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("aggregation interrupted: %w", err)
	}

	ledger := make(model.Ledger, 0)
	var failures []model.ComponentFailure

	for i, res := range results {
		if res.failure != nil {
			failures = append(failures, *res.failure)
			continue
		}
		for _, row := range res.rows {
			row.Weight *= components[i].Weight
			ledger = append(ledger, row)
		}
	}

	slog.Debug(
		"Aggregate finished",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("rows", len(ledger)),
		slog.Int("failures", len(failures)),
	)

	return ledger, failures, nil
}

func (a *Aggregator) resolveComponent(ctx context.Context, component model.Component, useCache bool) ([]model.HoldingsRow, error) {
	table, err := a.resolver.Resolve(ctx, strings.TrimSpace(component.SourceURL), useCache)
	if err != nil {
		return nil, err
	}
	return Normalize(table), nil
}

// ValidateComponents rejects entries that can not contribute to the ledger.
func ValidateComponents(components []model.Component) error {
	for i, c := range components {
		if !c.IsFund() && strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: component %d has neither source_url nor name", ErrInvalidComponent, i)
		}
		if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) || c.Weight < 0 {
			return fmt.Errorf("%w: component %d (%s) has weight %v", ErrInvalidComponent, i, c.Label(), c.Weight)
		}
	}
	return nil
}

// ManualRow is the single holding of a manually declared asset.
func ManualRow(c model.Component) model.HoldingsRow {
	name := strings.TrimSpace(c.Name)

	ticker := strings.ToUpper(name)
	if ticker == "" {
		ticker = manualTicker
	}

	assetClass := strings.TrimSpace(c.AssetClass)
	if assetClass == "" {
		assetClass = manualAssetClass
	}

	return model.HoldingsRow{
		Ticker:     ticker,
		Name:       name,
		Sector:     manualSectorValue,
		Country:    manualSectorValue,
		AssetClass: assetClass,
		Weight:     1,
	}
}

func failureKind(err error) model.FailureKind {
	if errors.Is(err, ErrParse) {
		return model.FailureParse
	}
	return model.FailureResolution
}
