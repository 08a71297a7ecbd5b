// Package api contains API contract definitions for the bitewatch service.
// Version v1 represents the current stable API version.
package api

import (
	"fmt"
	"time"

	"bitewatch/pkg/contracts/domain"
)

// Common request parameters

// DateRangeRequest represents an inclusive calendar-date range in requests
type DateRangeRequest struct {
	From string `json:"from,omitempty" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// SelectionRequest mirrors domain.Selection on the wire: either select-all
// or an explicit value subset for one dimension
type SelectionRequest struct {
	All    bool     `json:"all,omitempty"`
	Values []string `json:"values,omitempty"`
}

// FilterRequest is the wire form of a filter specification
type FilterRequest struct {
	DateRangeRequest
	Dimensions map[string]SelectionRequest `json:"dimensions,omitempty"`
}

// ToSpec converts the wire filter into a domain filter specification,
// rejecting unknown dimension identifiers and malformed dates.
func (f FilterRequest) ToSpec() (domain.FilterSpec, error) {
	var spec domain.FilterSpec

	if f.From != "" {
		from, err := time.Parse("2006-01-02", f.From)
		if err != nil {
			return spec, fmt.Errorf("invalid from date %q: %w", f.From, err)
		}
		spec.From = &from
	}
	if f.To != "" {
		to, err := time.Parse("2006-01-02", f.To)
		if err != nil {
			return spec, fmt.Errorf("invalid to date %q: %w", f.To, err)
		}
		spec.To = &to
	}
	if spec.From != nil && spec.To != nil && spec.To.Before(*spec.From) {
		return spec, fmt.Errorf("date range end %s precedes start %s", f.To, f.From)
	}

	if len(f.Dimensions) > 0 {
		spec.Dimensions = make(map[domain.Dimension]domain.Selection, len(f.Dimensions))
		for name, sel := range f.Dimensions {
			dim, err := domain.ParseDimension(name)
			if err != nil {
				return spec, err
			}
			spec.Dimensions[dim] = domain.Selection{All: sel.All, Values: sel.Values}
		}
	}
	return spec, nil
}

// Query API requests

// RecordsRequest asks for a page of filtered records
type RecordsRequest struct {
	Filter FilterRequest `json:"filter"`
	Limit  int           `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
	Offset int           `json:"offset,omitempty" validate:"min=0"`
}

// AggregateRequest asks for one aggregation over a filtered view. Kind
// selects the computation; the matching params block applies, the others
// are ignored.
type AggregateRequest struct {
	Filter      FilterRequest      `json:"filter"`
	Kind        string             `json:"kind" validate:"required,oneof=monthly_trend cross_tab top_n kpi breakdown city_metrics"`
	TopN        *TopNParams        `json:"top_n,omitempty"`
	Breakdown   *BreakdownParams   `json:"breakdown,omitempty"`
	CityMetrics *CityMetricsParams `json:"city_metrics,omitempty"`
}

// TopNParams configures a top-N ranking over one dimension
type TopNParams struct {
	Dimension      string `json:"dimension" validate:"required,dimension"`
	N              int    `json:"n" validate:"min=1,max=100"`
	ExcludeUnknown bool   `json:"exclude_unknown,omitempty"`
	IncludeShare   bool   `json:"include_share,omitempty"`
}

// BreakdownParams configures a two-dimension grouped count
type BreakdownParams struct {
	Primary        string `json:"primary" validate:"required,dimension"`
	Secondary      string `json:"secondary" validate:"required,dimension"`
	TopPrimary     int    `json:"top_primary,omitempty" validate:"omitempty,min=1,max=50"`
	ExcludeUnknown bool   `json:"exclude_unknown,omitempty"`
}

// CityMetricsParams configures the per-city metrics table
type CityMetricsParams struct {
	N int `json:"n,omitempty" validate:"omitempty,min=1,max=100"`
}

// Dataset API requests

// ReloadRequest forces a source revalidation. Force skips the fast
// stat-based check and rehashes the source even when size and mtime are
// unchanged.
type ReloadRequest struct {
	Force bool `json:"force,omitempty"`
}
