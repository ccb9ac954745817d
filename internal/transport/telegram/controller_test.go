package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/data/session"
	"github.com/KotFed0t/portfolio_xray/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext implements only what the controller touches.
type fakeContext struct {
	tele.Context
	chat   *tele.Chat
	data   string
	args   []string
	values map[string]any
	sent   []any
	edited []any
}

func newFakeContext(chatID int64, args ...string) *fakeContext {
	return &fakeContext{chat: &tele.Chat{ID: chatID}, args: args, values: map[string]any{"rqID": "test-rq"}}
}

func (c *fakeContext) Chat() *tele.Chat                        { return c.chat }
func (c *fakeContext) Data() string                            { return c.data }
func (c *fakeContext) Args() []string                          { return c.args }
func (c *fakeContext) Get(key string) any                      { return c.values[key] }
func (c *fakeContext) Set(key string, val any)                 { c.values[key] = val }
func (c *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (c *fakeContext) Send(what any, opts ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Edit(what any, opts ...any) error {
	c.edited = append(c.edited, what)
	return nil
}

type fakeXrayService struct {
	portfolio    []model.Component
	portfolioErr error
	result       model.AnalysisResult
	reportErr    error
	refreshErr   error
	skipDownload []bool
	analyzed     [][]model.Component
	reported     [][]model.Component
}

func (f *fakeXrayService) PortfolioComponents(ctx context.Context) ([]model.Component, error) {
	if f.portfolioErr != nil {
		return nil, f.portfolioErr
	}
	return f.portfolio, nil
}

func (f *fakeXrayService) ExportComponents(components []model.Component) ([]byte, error) {
	return []byte(fmt.Sprintf("%d components", len(components))), nil
}

func (f *fakeXrayService) AggregateAndBuildViews(ctx context.Context, components []model.Component, skipDownload bool) model.AnalysisResult {
	f.skipDownload = append(f.skipDownload, skipDownload)
	f.analyzed = append(f.analyzed, components)
	return f.result
}

func (f *fakeXrayService) GenerateReport(ctx context.Context, components []model.Component, skipDownload bool) ([]byte, string, error) {
	f.skipDownload = append(f.skipDownload, skipDownload)
	f.reported = append(f.reported, components)
	if f.reportErr != nil {
		return nil, "", f.reportErr
	}
	return []byte("xlsx"), ".xlsx", nil
}

func (f *fakeXrayService) PublishReport(ctx context.Context, components []model.Component, skipDownload bool) (string, error) {
	f.reported = append(f.reported, components)
	if f.reportErr != nil {
		return "", f.reportErr
	}
	return "https://drive.google.com/file/d/abc/view", nil
}

func (f *fakeXrayService) Refresh(ctx context.Context) error {
	return f.refreshErr
}

func filePortfolio() []model.Component {
	return []model.Component{
		{Weight: 0.6, SourceURL: "https://www.ishares.com/it/fund-a"},
		{Weight: 0.4, SourceURL: "https://www.ishares.com/it/fund-b"},
	}
}

func newController(srv XrayService) *Controller {
	cfg := &config.Config{}
	cfg.Telegram.ViewRows = 10
	return NewController(cfg, srv, session.NewMemorySession())
}

func resultWithViews() model.AnalysisResult {
	return model.AnalysisResult{Views: model.Views{
		model.ViewGlobalByAsset: {
			Name:         model.ViewGlobalByAsset,
			KeyColumns:   []string{model.ColumnAssetClass},
			WeightColumn: model.ColumnWeight,
			Rows:         []model.ViewRow{{Keys: []string{"Azionario"}, Weight: 1}},
		},
	}}
}

func TestXray_UsesSessionFlag(t *testing.T) {
	srv := &fakeXrayService{result: resultWithViews()}
	ctrl := newController(srv)
	c := newFakeContext(1)

	require.NoError(t, ctrl.Xray(c))
	require.NoError(t, ctrl.ForceDownload(c))
	require.NoError(t, ctrl.Xray(c))
	require.NoError(t, ctrl.UseCache(c))
	require.NoError(t, ctrl.Xray(c))

	assert.Equal(t, []bool{true, false, true}, srv.skipDownload)
	assert.Contains(t, c.sent[0], "Azionario: 100.00%")
}

func TestShowView(t *testing.T) {
	ctrl := newController(&fakeXrayService{result: resultWithViews()})

	c := newFakeContext(1)
	c.data = model.ViewGlobalByAsset
	require.NoError(t, ctrl.ShowView(c))
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "1. Azionario - 100.00%")

	c = newFakeContext(1)
	c.data = "nope"
	require.NoError(t, ctrl.ShowView(c))
	assert.Equal(t, []any{telebotConverter.InternalErrMsg}, c.sent)
}

func TestReport(t *testing.T) {
	c := newFakeContext(1)
	require.NoError(t, newController(&fakeXrayService{}).Report(c))

	require.Len(t, c.sent, 1)
	doc, ok := c.sent[0].(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "portfolio_analysis.xlsx", doc.FileName)

	c = newFakeContext(1)
	require.NoError(t, newController(&fakeXrayService{reportErr: service.ErrNoData}).Report(c))
	assert.Equal(t, []any{telebotConverter.NoDataMsg}, c.sent)
}

func TestPublishAndRefresh(t *testing.T) {
	c := newFakeContext(1)
	require.NoError(t, newController(&fakeXrayService{}).Publish(c))
	assert.Equal(t, []any{"📎 Report: https://drive.google.com/file/d/abc/view"}, c.sent)

	c = newFakeContext(1)
	require.NoError(t, newController(&fakeXrayService{refreshErr: errors.New("boom")}).Refresh(c))
	assert.Equal(t, []any{telebotConverter.InternalErrMsg}, c.sent)
}

func TestXray_PortfolioUnavailableIsConfigError(t *testing.T) {
	srv := &fakeXrayService{portfolioErr: fmt.Errorf("%w: missing", service.ErrPortfolioUnavailable)}
	c := newFakeContext(1)

	require.NoError(t, newController(srv).Xray(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "config")
	assert.Empty(t, srv.analyzed)
}

func TestSandbox_EditsFeedAnalysis(t *testing.T) {
	srv := &fakeXrayService{portfolio: filePortfolio(), result: resultWithViews()}
	ctrl := newController(srv)

	steps := []struct {
		name    string
		handler func(tele.Context) error
		args    []string
		want    []model.Component
	}{
		{
			name:    "set weight",
			handler: ctrl.SetWeight,
			args:    []string{"1", "50%"},
			want: []model.Component{
				{Weight: 0.5, SourceURL: "https://www.ishares.com/it/fund-a"},
				{Weight: 0.4, SourceURL: "https://www.ishares.com/it/fund-b"},
			},
		},
		{
			name:    "add manual asset",
			handler: ctrl.AddManual,
			args:    []string{"0,1", "Liquidità", "Conto", "deposito"},
			want: []model.Component{
				{Weight: 0.5, SourceURL: "https://www.ishares.com/it/fund-a"},
				{Weight: 0.4, SourceURL: "https://www.ishares.com/it/fund-b"},
				{Weight: 0.1, Name: "Conto deposito", AssetClass: "Liquidità"},
			},
		},
		{
			name:    "remove fund",
			handler: ctrl.RemoveComponent,
			args:    []string{"2"},
			want: []model.Component{
				{Weight: 0.5, SourceURL: "https://www.ishares.com/it/fund-a"},
				{Weight: 0.1, Name: "Conto deposito", AssetClass: "Liquidità"},
			},
		},
		{
			name:    "add fund",
			handler: ctrl.AddFund,
			args:    []string{"0.4", "https://www.ishares.com/it/fund-c"},
			want: []model.Component{
				{Weight: 0.5, SourceURL: "https://www.ishares.com/it/fund-a"},
				{Weight: 0.1, Name: "Conto deposito", AssetClass: "Liquidità"},
				{Weight: 0.4, SourceURL: "https://www.ishares.com/it/fund-c"},
			},
		},
	}

	for _, step := range steps {
		c := newFakeContext(1, step.args...)
		require.NoError(t, step.handler(c), step.name)
		require.Len(t, c.sent, 1, step.name)
		assert.Contains(t, c.sent[0], "Sandbox portfolio", step.name)

		require.NoError(t, ctrl.Xray(newFakeContext(1)), step.name)
		assert.Equal(t, step.want, srv.analyzed[len(srv.analyzed)-1], step.name)
	}

	// the portfolio file is untouched
	assert.Equal(t, filePortfolio(), srv.portfolio)

	// other chats still analyze the file
	require.NoError(t, ctrl.Xray(newFakeContext(2)))
	assert.Equal(t, filePortfolio(), srv.analyzed[len(srv.analyzed)-1])

	// reports use the sandbox too
	require.NoError(t, ctrl.Report(newFakeContext(1)))
	assert.Equal(t, steps[len(steps)-1].want, srv.reported[len(srv.reported)-1])

	c := newFakeContext(1)
	require.NoError(t, ctrl.ResetSandbox(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Portfolio file")

	require.NoError(t, ctrl.Xray(newFakeContext(1)))
	assert.Equal(t, filePortfolio(), srv.analyzed[len(srv.analyzed)-1])
}

func TestSandbox_RemovingEverythingKeepsEmptySandbox(t *testing.T) {
	srv := &fakeXrayService{portfolio: filePortfolio()}
	ctrl := newController(srv)

	require.NoError(t, ctrl.RemoveComponent(newFakeContext(1, "1")))
	require.NoError(t, ctrl.RemoveComponent(newFakeContext(1, "1")))

	c := newFakeContext(1)
	require.NoError(t, ctrl.Portfolio(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "no components")

	require.NoError(t, ctrl.Xray(newFakeContext(1)))
	assert.Empty(t, srv.analyzed[len(srv.analyzed)-1])
}

func TestSandbox_RejectedEdits(t *testing.T) {
	tests := []struct {
		name    string
		handler func(ctrl *Controller) func(tele.Context) error
		args    []string
	}{
		{name: "set without weight", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.SetWeight }, args: []string{"1"}},
		{name: "set unknown number", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.SetWeight }, args: []string{"9", "0.1"}},
		{name: "add bad weight", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.AddFund }, args: []string{"abc", "https://x"}},
		{name: "add not a url", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.AddFund }, args: []string{"0.1", "fund"}},
		{name: "manual without name", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.AddManual }, args: []string{"0.1", "Liquidità"}},
		{name: "remove zero", handler: func(ctrl *Controller) func(tele.Context) error { return ctrl.RemoveComponent }, args: []string{"0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &fakeXrayService{portfolio: filePortfolio()}
			ctrl := newController(srv)

			c := newFakeContext(1, tt.args...)
			require.NoError(t, tt.handler(ctrl)(c))
			require.Len(t, c.sent, 1)
			assert.Contains(t, c.sent[0], "⚠️")

			// nothing was saved
			require.NoError(t, ctrl.Xray(newFakeContext(1)))
			assert.Equal(t, filePortfolio(), srv.analyzed[0])
		})
	}
}

func TestExport(t *testing.T) {
	srv := &fakeXrayService{portfolio: filePortfolio()}
	ctrl := newController(srv)
	require.NoError(t, ctrl.AddManual(newFakeContext(1, "0.2", "Oro", "Lingotti")))

	c := newFakeContext(1)
	require.NoError(t, ctrl.Export(c))

	require.Len(t, c.sent, 1)
	doc, ok := c.sent[0].(*tele.Document)
	require.True(t, ok)
	assert.Equal(t, "portfolio.yaml", doc.FileName)

	data, err := io.ReadAll(doc.FileReader)
	require.NoError(t, err)
	assert.Equal(t, "3 components", string(data))
}
