package aggregator

import "errors"

var (
	// ErrResolution means a source could not be fetched: unreachable page,
	// missing download link or failed download.
	ErrResolution = errors.New("source resolution failed")
	// ErrParse means the fetched export had no recognizable table.
	ErrParse = errors.New("source parse failed")
	// ErrInvalidComponent means a component can not contribute anything,
	// e.g. it has neither a source url nor a name.
	ErrInvalidComponent = errors.New("invalid portfolio component")
)
