package xrayService

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/KotFed0t/portfolio_xray/data/cache"
	"github.com/KotFed0t/portfolio_xray/internal/aggregator"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/internal/service"
	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

type Aggregator interface {
	Aggregate(ctx context.Context, components []model.Component, useCache bool) (model.Ledger, []model.ComponentFailure, error)
}

type PortfolioSource interface {
	LoadComponents(ctx context.Context) ([]model.Component, error)
	Export(components []model.Component) ([]byte, error)
}

type Cache interface {
	GetViews(ctx context.Context, key string) (model.AnalysisResult, error)
	SetViews(ctx context.Context, key string, result model.AnalysisResult) error
	FlushViews(ctx context.Context) error
}

type ReportGenerator interface {
	Generate(ctx context.Context, views model.Views) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorageApi interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

// XrayService builds look-through views of the portfolio. cache and
// cloudStorage are optional and may be nil.
type XrayService struct {
	aggregator   Aggregator
	portfolio    PortfolioSource
	cache        Cache
	reportGen    ReportGenerator
	cloudStorage CloudStorageApi
}

func New(aggregator Aggregator, portfolio PortfolioSource, cache Cache, reportGen ReportGenerator, cloudStorage CloudStorageApi) *XrayService {
	return &XrayService{
		aggregator:   aggregator,
		portfolio:    portfolio,
		cache:        cache,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
	}
}

// AggregateAndBuildViews runs the whole pipeline for the given components.
// It never returns a Go error: failures are reported inside the result.
func (s *XrayService) AggregateAndBuildViews(ctx context.Context, components []model.Component, skipDownload bool) (result model.AnalysisResult) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XrayService.AggregateAndBuildViews"

	slog.Debug("AggregateAndBuildViews start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("components", len(components)), slog.Bool("skipDownload", skipDownload))
	defer func() {
		slog.Debug("AggregateAndBuildViews finished", slog.String("rqID", rqID), slog.String("op", op), slog.Bool("cached", result.Cached))
	}()

	if len(components) == 0 {
		return model.AnalysisResult{Views: model.Views{}}
	}

	// NaN and Inf weights can not be hashed, so validate before building the key
	if err := aggregator.ValidateComponents(components); err != nil {
		slog.Error("invalid portfolio configuration", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return failure(model.FailureConfig, err)
	}

	key, err := CacheKey(components, skipDownload)
	if err != nil {
		slog.Error("can't build cache key", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return failure(model.FailureInternal, err)
	}

	if s.cache != nil {
		cached, err := s.cache.GetViews(ctx, key)
		if err == nil {
			slog.Info("got views from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", key))
			cached.Cached = true
			return cached
		}
		slog.Warn("can't get views from cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	ledger, failures, err := s.aggregator.Aggregate(ctx, components, skipDownload)
	if err != nil {
		if errors.Is(err, aggregator.ErrInvalidComponent) {
			slog.Error("invalid portfolio configuration", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return failure(model.FailureConfig, err)
		}
		slog.Error("got error from aggregator.Aggregate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return failure(model.FailureInternal, err)
	}

	slog.Info(
		"ledger built",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("rows", len(ledger)),
		slog.Float64("totalWeight", ledger.TotalWeight()),
		slog.Int("failures", len(failures)),
	)

	result = model.AnalysisResult{
		Views:    aggregator.BuildViews(ledger),
		Failures: failures,
	}

	if len(result.Views) == 0 {
		slog.Warn("no holdings data", slog.String("rqID", rqID), slog.String("op", op), slog.Int("failures", len(failures)))
		return result
	}

	if s.cache != nil {
		if err := s.cache.SetViews(ctx, key, result); err != nil {
			slog.Warn("can't store views in cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	return result
}

// PortfolioComponents returns the components of the configured portfolio file.
func (s *XrayService) PortfolioComponents(ctx context.Context) ([]model.Component, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XrayService.PortfolioComponents"

	components, err := s.portfolio.LoadComponents(ctx)
	if err != nil {
		slog.Error("got error from portfolio.LoadComponents", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("%w: %w", service.ErrPortfolioUnavailable, err)
	}

	return components, nil
}

// ExportComponents renders components in the portfolio file format.
func (s *XrayService) ExportComponents(components []model.Component) ([]byte, error) {
	return s.portfolio.Export(components)
}

// Analyze runs AggregateAndBuildViews on the configured portfolio.
func (s *XrayService) Analyze(ctx context.Context, skipDownload bool) model.AnalysisResult {
	components, err := s.PortfolioComponents(ctx)
	if err != nil {
		return failure(model.FailureConfig, err)
	}

	return s.AggregateAndBuildViews(ctx, components, skipDownload)
}

// GenerateReport builds the xlsx workbook of every view of components.
func (s *XrayService) GenerateReport(ctx context.Context, components []model.Component, skipDownload bool) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XrayService.GenerateReport"

	slog.Debug("GenerateReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GenerateReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	result := s.AggregateAndBuildViews(ctx, components, skipDownload)
	if result.Failed() {
		return nil, "", result.Err
	}
	if result.NoData() {
		return nil, "", service.ErrNoData
	}

	fileBytes, fileExtension, err = s.reportGen.Generate(ctx, result.Views)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fileExtension, nil
}

// PublishReport uploads a fresh report and returns its public link.
func (s *XrayService) PublishReport(ctx context.Context, components []model.Component, skipDownload bool) (string, error) {
	if s.cloudStorage == nil {
		return "", service.ErrPublishingDisabled
	}

	fileBytes, fileExtension, err := s.GenerateReport(ctx, components, skipDownload)
	if err != nil {
		return "", err
	}

	return s.UploadReport(ctx, fileBytes, fileExtension)
}

// UploadReport publishes an already generated report.
func (s *XrayService) UploadReport(ctx context.Context, fileBytes []byte, fileExtension string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XrayService.UploadReport"

	if s.cloudStorage == nil {
		return "", service.ErrPublishingDisabled
	}

	link, err := s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), ReportFilename(time.Now(), fileExtension))
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	slog.Info("report published", slog.String("rqID", rqID), slog.String("op", op), slog.String("link", link))

	return link, nil
}

// Refresh drops cached views and recomputes them from fresh downloads.
func (s *XrayService) Refresh(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XrayService.Refresh"

	if s.cache != nil {
		// synchronously, otherwise the recompute below could be served from cache
		if err := s.cache.FlushViews(ctx); err != nil {
			slog.Error("got error from cache.FlushViews", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return err
		}
	}

	result := s.Analyze(ctx, false)
	if result.Failed() {
		return result.Err
	}

	slog.Info(
		"views refreshed",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("views", len(result.Views)),
		slog.Int("failures", len(result.Failures)),
	)

	return nil
}

// CleanupReports removes expired published reports.
func (s *XrayService) CleanupReports(ctx context.Context) error {
	if s.cloudStorage == nil {
		return service.ErrPublishingDisabled
	}
	return s.cloudStorage.DeleteOldFiles(ctx)
}

// CacheKey identifies a run by its components and download mode.
func CacheKey(components []model.Component, skipDownload bool) (string, error) {
	if components == nil {
		components = []model.Component{}
	}

	payload, err := json.Marshal(struct {
		Components   []model.Component `json:"components"`
		SkipDownload bool              `json:"skip_download"`
	}{components, skipDownload})
	if err != nil {
		return "", fmt.Errorf("marshal cache key: %w", err)
	}

	return cache.ViewsKeyPrefix + strconv.FormatUint(xxhash.Sum64(payload), 16), nil
}

func ReportFilename(now time.Time, fileExtension string) string {
	return fmt.Sprintf("portfolio_xray_%s_%s%s", now.Format("2006-01-02"), uuid.NewString()[:8], fileExtension)
}

func failure(kind model.FailureKind, err error) model.AnalysisResult {
	return model.AnalysisResult{Err: &model.AnalysisError{Kind: kind, Message: err.Error()}}
}
