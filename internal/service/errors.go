package service

import "errors"

var (
	ErrNoData               = errors.New("error no holdings data")
	ErrPublishingDisabled   = errors.New("error report publishing is disabled")
	ErrPortfolioUnavailable = errors.New("error portfolio file unavailable")
)
