package tgbot

import (
	"log/slog"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_xray/internal/transport/telegram"
	customMW "github.com/KotFed0t/portfolio_xray/internal/transport/telegram/middleware"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type TGBot struct {
	bot  *tele.Bot
	ctrl *telegram.Controller
}

func New(cfg *config.Config, ctrl *telegram.Controller) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/xray", b.ctrl.Xray)
	b.bot.Handle("/report", b.ctrl.Report)
	b.bot.Handle("/publish", b.ctrl.Publish)
	b.bot.Handle("/use_cache", b.ctrl.UseCache)
	b.bot.Handle("/force_download", b.ctrl.ForceDownload)
	b.bot.Handle("/refresh", b.ctrl.Refresh)

	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/set", b.ctrl.SetWeight)
	b.bot.Handle("/add", b.ctrl.AddFund)
	b.bot.Handle("/manual", b.ctrl.AddManual)
	b.bot.Handle("/remove", b.ctrl.RemoveComponent)
	b.bot.Handle("/reset", b.ctrl.ResetSandbox)
	b.bot.Handle("/export", b.ctrl.Export)

	b.bot.Handle(&tele.Btn{Unique: tgCallback.ShowView}, b.ctrl.ShowView)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.BackToXray}, b.ctrl.BackToXray)

	b.bot.Handle(tele.OnText, b.ctrl.Start)
}
