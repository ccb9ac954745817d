package telegram

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/internal/portfolioSandbox"
	"github.com/KotFed0t/portfolio_xray/utils"
	tele "gopkg.in/telebot.v4"
)

type XrayService interface {
	PortfolioComponents(ctx context.Context) ([]model.Component, error)
	ExportComponents(components []model.Component) ([]byte, error)
	AggregateAndBuildViews(ctx context.Context, components []model.Component, skipDownload bool) model.AnalysisResult
	GenerateReport(ctx context.Context, components []model.Component, skipDownload bool) (fileBytes []byte, fileExtension string, err error)
	PublishReport(ctx context.Context, components []model.Component, skipDownload bool) (string, error)
	Refresh(ctx context.Context) error
}

// sandboxEdit derives new components from the current ones and the command args.
type sandboxEdit func(components []model.Component, args []string) ([]model.Component, error)

type Session interface {
	GetSession(ctx context.Context, chatID int64) (model.Session, error)
	SetSession(ctx context.Context, chatID int64, session model.Session) error
}

type Controller struct {
	cfg         *config.Config
	xrayService XrayService
	session     Session
}

func NewController(cfg *config.Config, xrayService XrayService, session Session) *Controller {
	return &Controller{
		cfg:         cfg,
		xrayService: xrayService,
		session:     session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	return c.Send(telebotConverter.StartText())
}

func (ctrl *Controller) Xray(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	result := ctrl.analyze(ctx, c)

	text, markup := telebotConverter.AnalysisResponse(result)
	if markup == nil {
		return c.Send(text)
	}
	return c.Send(text, markup)
}

// BackToXray redraws the summary in place of the view message.
func (ctrl *Controller) BackToXray(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = c.Respond()

	result := ctrl.analyze(ctx, c)

	text, markup := telebotConverter.AnalysisResponse(result)
	if markup == nil {
		return c.Edit(text)
	}
	return c.Edit(text, markup)
}

func (ctrl *Controller) ShowView(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)
	_ = c.Respond()

	result := ctrl.analyze(ctx, c)
	if result.Failed() || result.NoData() {
		text, _ := telebotConverter.AnalysisResponse(result)
		return c.Edit(text)
	}

	view, ok := result.Views[c.Data()]
	if !ok {
		slog.Warn("unknown view requested", slog.String("rqID", rqID), slog.String("view", c.Data()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	text, markup := telebotConverter.ViewResponse(view, ctrl.cfg.Telegram.ViewRows)
	return c.Edit(text, markup)
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, components, err := ctrl.components(ctx, c)
	if err != nil {
		return c.Send(telebotConverter.ErrorText(err))
	}

	fileBytes, fileExtension, err := ctrl.xrayService.GenerateReport(ctx, components, chatSession.SkipDownload)
	if err != nil {
		slog.Error("got error from xrayService.GenerateReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.ErrorText(err))
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(fileBytes)),
		FileName: "portfolio_analysis" + fileExtension,
	}
	return c.Send(doc)
}

func (ctrl *Controller) Publish(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, components, err := ctrl.components(ctx, c)
	if err != nil {
		return c.Send(telebotConverter.ErrorText(err))
	}

	link, err := ctrl.xrayService.PublishReport(ctx, components, chatSession.SkipDownload)
	if err != nil {
		slog.Error("got error from xrayService.PublishReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.ErrorText(err))
	}

	return c.Send("📎 Report: " + link)
}

func (ctrl *Controller) UseCache(c tele.Context) error {
	return ctrl.setSkipDownload(c, true, "Downloaded holdings files will be reused.")
}

func (ctrl *Controller) ForceDownload(c tele.Context) error {
	return ctrl.setSkipDownload(c, false, "Holdings files will be downloaded on every analysis.")
}

func (ctrl *Controller) Refresh(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.xrayService.Refresh(ctx)
	if err != nil {
		slog.Error("got error from xrayService.Refresh", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.ErrorText(err))
	}

	return c.Send("✅ Views refreshed")
}

// Portfolio shows the components the analysis runs on.
func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, components, err := ctrl.components(ctx, c)
	if err != nil {
		return c.Send(telebotConverter.ErrorText(err))
	}

	return c.Send(telebotConverter.SandboxResponse(components, chatSession.Sandbox))
}

func (ctrl *Controller) SetWeight(c tele.Context) error {
	return ctrl.editSandbox(c, portfolioSandbox.Set)
}

func (ctrl *Controller) AddFund(c tele.Context) error {
	return ctrl.editSandbox(c, portfolioSandbox.Add)
}

func (ctrl *Controller) AddManual(c tele.Context) error {
	return ctrl.editSandbox(c, portfolioSandbox.AddManual)
}

func (ctrl *Controller) RemoveComponent(c tele.Context) error {
	return ctrl.editSandbox(c, portfolioSandbox.Remove)
}

// ResetSandbox goes back to the portfolio file.
func (ctrl *Controller) ResetSandbox(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.session.GetSession(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	chatSession.Sandbox = false
	chatSession.Components = nil
	if err = ctrl.session.SetSession(ctx, c.Chat().ID, chatSession); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	return ctrl.Portfolio(c)
}

// Export sends the components in use as a portfolio file.
func (ctrl *Controller) Export(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	_, components, err := ctrl.components(ctx, c)
	if err != nil {
		return c.Send(telebotConverter.ErrorText(err))
	}

	data, err := ctrl.xrayService.ExportComponents(components)
	if err != nil {
		slog.Error("got error from xrayService.ExportComponents", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: "portfolio.yaml",
	}
	return c.Send(doc)
}

func (ctrl *Controller) editSandbox(c tele.Context, edit sandboxEdit) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, components, err := ctrl.components(ctx, c)
	if err != nil {
		return c.Send(telebotConverter.ErrorText(err))
	}

	components, err = edit(components, c.Args())
	if err != nil {
		slog.Warn("sandbox edit rejected", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.ErrorText(err))
	}

	chatSession.Sandbox = true
	chatSession.Components = components
	if err = ctrl.session.SetSession(ctx, c.Chat().ID, chatSession); err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	return c.Send(telebotConverter.SandboxResponse(components, true))
}

func (ctrl *Controller) setSkipDownload(c tele.Context, skipDownload bool, reply string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.session.GetSession(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	chatSession.SkipDownload = skipDownload
	err = ctrl.session.SetSession(ctx, c.Chat().ID, chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(telebotConverter.InternalErrMsg)
	}

	return c.Send(reply)
}

func (ctrl *Controller) analyze(ctx context.Context, c tele.Context) model.AnalysisResult {
	chatSession, components, err := ctrl.components(ctx, c)
	if err != nil {
		return model.AnalysisResult{Err: &model.AnalysisError{Kind: model.FailureConfig, Message: err.Error()}}
	}
	return ctrl.xrayService.AggregateAndBuildViews(ctx, components, chatSession.SkipDownload)
}

// components returns the sandbox of the chat, or the portfolio file when there
// is none. A session that can't be read falls back to the defaults.
func (ctrl *Controller) components(ctx context.Context, c tele.Context) (model.Session, []model.Component, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.session.GetSession(ctx, c.Chat().ID)
	if err != nil {
		slog.Warn("can't get session", slog.String("rqID", rqID), slog.String("err", err.Error()))
		chatSession = model.DefaultSession()
	}

	if chatSession.Sandbox {
		return chatSession, chatSession.Components, nil
	}

	components, err := ctrl.xrayService.PortfolioComponents(ctx)
	if err != nil {
		return chatSession, nil, err
	}
	return chatSession, components, nil
}
