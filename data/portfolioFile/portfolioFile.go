package portfolioFile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
	"gopkg.in/yaml.v3"
)

// entry accepts both the current source_url key and the older url key.
type entry struct {
	Weight     float64 `yaml:"weight"`
	SourceURL  string  `yaml:"source_url"`
	URL        string  `yaml:"url"`
	Name       string  `yaml:"name"`
	AssetClass string  `yaml:"asset_class"`
}

type PortfolioFile struct {
	path string
}

func New(cfg *config.Config) *PortfolioFile {
	return &PortfolioFile{path: cfg.Portfolio.File}
}

// LoadComponents reads the ordered component list of the portfolio.
func (p *PortfolioFile) LoadComponents(ctx context.Context) ([]model.Component, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioFile.LoadComponents"

	data, err := os.ReadFile(p.path)
	if err != nil {
		slog.Error("can't read portfolio file", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", p.path), slog.String("err", err.Error()))
		return nil, err
	}

	components, err := Decode(data)
	if err != nil {
		slog.Error("can't decode portfolio file", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", p.path), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("portfolio file loaded", slog.String("rqID", rqID), slog.String("op", op), slog.Int("components", len(components)))

	return components, nil
}

func Decode(data []byte) ([]model.Component, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode portfolio yaml: %w", err)
	}

	components := make([]model.Component, 0, len(entries))
	for _, e := range entries {
		sourceURL := e.SourceURL
		if sourceURL == "" {
			sourceURL = e.URL
		}
		components = append(components, model.Component{
			Weight:     e.Weight,
			SourceURL:  sourceURL,
			Name:       e.Name,
			AssetClass: e.AssetClass,
		})
	}

	return components, nil
}

// Export renders components the way LoadComponents expects them.
func (p *PortfolioFile) Export(components []model.Component) ([]byte, error) {
	return Encode(components)
}

func Encode(components []model.Component) ([]byte, error) {
	return yaml.Marshal(components)
}
