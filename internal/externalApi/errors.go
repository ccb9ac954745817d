package externalApi

import "errors"

var (
	ErrNotFound  = errors.New("error not found")
	ErrBadStatus = errors.New("error unexpected response status")
)
