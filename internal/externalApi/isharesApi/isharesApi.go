package isharesApi

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/KotFed0t/portfolio_xray/config"
	"github.com/KotFed0t/portfolio_xray/internal/externalApi"
	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

type IsharesApi struct {
	client   *resty.Client
	linkText string
}

func New(cfg *config.Config) *IsharesApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetHeader("User-Agent", cfg.API.UserAgent)
	return &IsharesApi{client: client, linkText: strings.ToLower(cfg.API.IShares.LinkText)}
}

// GetHoldingsFileURL scans the fund page for the holdings export link.
func (a *IsharesApi) GetHoldingsFileURL(ctx context.Context, pageURL string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "IsharesApi.GetHoldingsFileURL"

	slog.Debug("start GetHoldingsFileURL request", slog.String("rqID", rqID), slog.String("op", op), slog.String("pageURL", pageURL))

	body, err := a.get(ctx, pageURL, "text/html")
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Error("can't parse fund page", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if !strings.Contains(text, a.linkText) {
			return true
		}
		href, _ = s.Attr("href")
		return false
	})

	if href == "" {
		slog.Warn("holdings link not found", slog.String("rqID", rqID), slog.String("op", op), slog.String("pageURL", pageURL))
		return "", fmt.Errorf("holdings link for %s: %w", pageURL, externalApi.ErrNotFound)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid holdings link %q: %w", href, err)
	}

	fileURL := base.ResolveReference(ref).String()

	slog.Debug("GetHoldingsFileURL request complete", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileURL", fileURL))

	return fileURL, nil
}

// DownloadFile returns the raw content found at fileURL.
func (a *IsharesApi) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "IsharesApi.DownloadFile"

	slog.Info("downloading holdings file", slog.String("rqID", rqID), slog.String("op", op), slog.String("fileURL", fileURL))

	return a.get(ctx, fileURL, "text/csv, */*")
}

func (a *IsharesApi) get(ctx context.Context, target, accept string) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", accept).
		Get(target)

	if err != nil {
		slog.Error("error while dialing iShares", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("url", target))
		return nil, err
	}

	if resp.IsError() {
		slog.Error("iShares responded with error", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID), slog.String("url", target))
		return nil, fmt.Errorf("GET %s: status %d: %w", target, resp.StatusCode(), externalApi.ErrBadStatus)
	}

	return resp.Body(), nil
}
