package api

import (
	"time"

	"bitewatch/pkg/contracts/domain"
)

// Dataset API responses

// DatasetResponse is the load metadata for the current dataset. The incident
// date bounds are omitted when the dataset holds no records.
type DatasetResponse struct {
	Source        domain.SourceInfo `json:"source"`
	RawRows       int               `json:"raw_rows"`
	DroppedRows   int               `json:"dropped_rows"`
	Records       int               `json:"records"`
	AgeMedian     float64           `json:"age_median"`
	FirstIncident *time.Time        `json:"first_incident,omitempty"`
	LastIncident  *time.Time        `json:"last_incident,omitempty"`
	LoadedAt      time.Time         `json:"loaded_at"`
}

// NewDatasetResponse builds the wire metadata for a dataset
func NewDatasetResponse(d *domain.Dataset) DatasetResponse {
	resp := DatasetResponse{
		Source:      d.Source,
		RawRows:     d.RawRows,
		DroppedRows: d.DroppedRows,
		Records:     d.Len(),
		AgeMedian:   d.AgeMedian,
		LoadedAt:    d.LoadedAt,
	}
	if !d.FirstIncident.IsZero() {
		first := d.FirstIncident
		resp.FirstIncident = &first
	}
	if !d.LastIncident.IsZero() {
		last := d.LastIncident
		resp.LastIncident = &last
	}
	return resp
}

// ReloadResponse reports a reload outcome. Changed is false when the source
// identity matched the cached dataset and nothing was recomputed.
type ReloadResponse struct {
	Changed bool            `json:"changed"`
	Dataset DatasetResponse `json:"dataset"`
}

// DimensionValues lists one dimension's distinct values in a filtered view,
// sorted ascending
type DimensionValues struct {
	Dimension string   `json:"dimension"`
	Values    []string `json:"values"`
}

// OptionsResponse carries the selectable values for every dimension
type OptionsResponse struct {
	Options []DimensionValues `json:"options"`
}

// Query API responses

// RecordsResponse is one page of filtered records. Filtered counts the whole
// view the filter selected; Total counts the full dataset.
type RecordsResponse struct {
	Records  []domain.Incident `json:"records"`
	Filtered int               `json:"filtered"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}
