package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/data"
	"github.com/KotFed0t/portfolio_xray/data/cache"
	"github.com/KotFed0t/portfolio_xray/data/portfolioFile"
	"github.com/KotFed0t/portfolio_xray/data/session"
	"github.com/KotFed0t/portfolio_xray/internal/aggregator"
	"github.com/KotFed0t/portfolio_xray/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/portfolio_xray/internal/externalApi/isharesApi"
	"github.com/KotFed0t/portfolio_xray/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/portfolio_xray/internal/resolver/isharesResolver"
	"github.com/KotFed0t/portfolio_xray/internal/scheduler"
	"github.com/KotFed0t/portfolio_xray/internal/service/xrayService"
	"github.com/KotFed0t/portfolio_xray/internal/tgbot"
	"github.com/KotFed0t/portfolio_xray/internal/transport/telegram"
	"github.com/KotFed0t/portfolio_xray/utils"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exiting.
func run() int {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	isharesApiClient := isharesApi.New(cfg)
	resolver := isharesResolver.New(cfg, isharesApiClient)
	agg := aggregator.New(resolver, cfg.Resolve.Concurrency)

	var viewsCache xrayService.Cache
	var chatSession telegram.Session = session.NewMemorySession()
	if cfg.Redis.Enabled {
		redisClient, err := data.NewRedisClient(ctx, cfg)
		if err != nil {
			slog.Error("can't connect to redis", slog.String("err", err.Error()))
			return 1
		}
		defer redisClient.Close()

		viewsCache = cache.NewRedisCache(redisClient, cfg)
		chatSession = session.NewRedisSession(redisClient, cfg)
	}

	var cloudStorage xrayService.CloudStorageApi
	if cfg.GoogleDrive.CredentialsFile != "" {
		googleCloudStorage, err := googleDriveApi.New(ctx, cfg)
		if err != nil {
			slog.Error("can't create google drive client", slog.String("err", err.Error()))
			return 1
		}
		cloudStorage = googleCloudStorage
	}

	xraySrv := xrayService.New(agg, portfolioFile.New(cfg), viewsCache, xslsxGenerator.New(), cloudStorage)

	switch cfg.RunMode {
	case config.RunModeReport:
		if err := runReport(utils.WithNewRqID(ctx), cfg, xraySrv); err != nil {
			slog.Error("report failed", slog.String("err", err.Error()))
			return 1
		}
	case config.RunModeBot:
		runBot(cfg, xraySrv, chatSession, cloudStorage != nil)
	default:
		slog.Error("unknown run mode", slog.String("runMode", cfg.RunMode))
		return 1
	}

	return 0
}

func runReport(ctx context.Context, cfg *config.Config, xraySrv *xrayService.XrayService) error {
	components, err := xraySrv.PortfolioComponents(ctx)
	if err != nil {
		return err
	}

	fileBytes, fileExtension, err := xraySrv.GenerateReport(ctx, components, cfg.Report.SkipDownload)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.Report.OutputFile, fileBytes, 0o644); err != nil {
		return err
	}
	slog.Info("report written", slog.String("file", cfg.Report.OutputFile))

	if cfg.Report.Publish {
		if _, err := xraySrv.UploadReport(ctx, fileBytes, fileExtension); err != nil {
			return err
		}
	}

	return nil
}

func runBot(cfg *config.Config, xraySrv *xrayService.XrayService, chatSession telegram.Session, publishing bool) {
	sched := scheduler.New()
	sched.NewIntervalJob("refresh views", xraySrv.Refresh, cfg.Jobs.RefreshInterval, false)
	if publishing {
		sched.NewIntervalJob("cleanup google drive", xraySrv.CleanupReports, cfg.Jobs.CleanupDriveInterval, true)
	}
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, xraySrv, chatSession)

	tgBot := tgbot.New(cfg, tgController)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
