package isharesResolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/aggregator"
	"github.com/KotFed0t/portfolio_xray/internal/holdingsCsv"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

type IsharesApi interface {
	GetHoldingsFileURL(ctx context.Context, pageURL string) (string, error)
	DownloadFile(ctx context.Context, fileURL string) ([]byte, error)
}

// Resolver fetches fund holdings exports and keeps the raw and the cleaned
// copy on disk, so that later runs can skip the download.
type Resolver struct {
	api          IsharesApi
	rawDir       string
	processedDir string
}

func New(cfg *config.Config, api IsharesApi) *Resolver {
	return &Resolver{
		api:          api,
		rawDir:       cfg.Data.RawDir,
		processedDir: cfg.Data.ProcessedDir,
	}
}

func (r *Resolver) Resolve(ctx context.Context, sourceURL string, useCache bool) (model.RawTable, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Resolver.Resolve"

	stem := FileStem(sourceURL)
	rawPath := filepath.Join(r.rawDir, stem+".csv")

	slog.Debug("Resolve start", slog.String("rqID", rqID), slog.String("op", op), slog.String("source", sourceURL), slog.Bool("useCache", useCache))

	raw, err := r.loadRaw(ctx, sourceURL, rawPath, useCache)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %s: %w", aggregator.ErrResolution, sourceURL, err)
	}

	clean, err := holdingsCsv.Clean(raw)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %s: %w", aggregator.ErrParse, rawPath, err)
	}

	cleanPath := filepath.Join(r.processedDir, stem+"_clean.csv")
	if err := writeFile(cleanPath, clean); err != nil {
		slog.Warn("can't store cleaned export", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", cleanPath), slog.String("err", err.Error()))
	}

	table, err := holdingsCsv.Parse(clean)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: %s: %w", aggregator.ErrParse, cleanPath, err)
	}

	slog.Debug("Resolve finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("source", sourceURL), slog.Int("rows", len(table.Rows)))

	return table, nil
}

func (r *Resolver) loadRaw(ctx context.Context, sourceURL, rawPath string, useCache bool) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Resolver.loadRaw"

	if useCache {
		raw, err := os.ReadFile(rawPath)
		if err == nil {
			slog.Info("using cached holdings export", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", rawPath))
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		slog.Warn("cached export missing, forcing download", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", rawPath))
	}

	fileURL, err := r.api.GetHoldingsFileURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	raw, err := r.api.DownloadFile(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	if err := writeFile(rawPath, raw); err != nil {
		slog.Warn("can't store raw export", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", rawPath), slog.String("err", err.Error()))
	}

	return raw, nil
}

// FileStem names the cached files of a fund after its page path.
func FileStem(sourceURL string) string {
	path := sourceURL
	if u, err := url.Parse(sourceURL); err == nil && u.Path != "" {
		path = u.Path
	}
	stem := nonAlnum.ReplaceAllString(strings.Trim(path, "/"), "_")
	if stem == "" {
		return "holdings"
	}
	return stem
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
