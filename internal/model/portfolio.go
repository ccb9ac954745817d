package model

import "strings"

// Component is one constituent of the portfolio: either a fund resolved
// from SourceURL or a manual asset described by Name and AssetClass.
type Component struct {
	Weight     float64 `json:"weight" yaml:"weight"`
	SourceURL  string  `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	AssetClass string  `json:"asset_class,omitempty" yaml:"asset_class,omitempty"`
}

func (c Component) IsFund() bool {
	return strings.TrimSpace(c.SourceURL) != ""
}

// Label identifies the component in logs and failure reports.
func (c Component) Label() string {
	if c.IsFund() {
		return strings.TrimSpace(c.SourceURL)
	}
	return strings.TrimSpace(c.Name)
}
