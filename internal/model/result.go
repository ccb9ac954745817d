package model

type FailureKind string

const (
	FailureResolution FailureKind = "resolution"
	FailureParse      FailureKind = "parse"
	FailureConfig     FailureKind = "config"
	FailureInternal   FailureKind = "internal"
)

// ComponentFailure describes a component skipped during aggregation.
type ComponentFailure struct {
	Index  int         `json:"index"`
	Source string      `json:"source"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

type AnalysisError struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (e *AnalysisError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// AnalysisResult is either a set of views (possibly empty, meaning no data)
// or an error describing why the whole aggregation failed.
type AnalysisResult struct {
	Views    Views              `json:"views,omitempty"`
	Failures []ComponentFailure `json:"failures,omitempty"`
	Err      *AnalysisError     `json:"error,omitempty"`
	Cached   bool               `json:"-"`
}

func (r AnalysisResult) Failed() bool {
	return r.Err != nil
}

func (r AnalysisResult) NoData() bool {
	return r.Err == nil && len(r.Views) == 0
}
