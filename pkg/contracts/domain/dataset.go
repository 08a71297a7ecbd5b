package domain

import (
	"time"
)

// SourceInfo identifies the raw input a dataset was built from. The
// fingerprint is a blake2b-256 hex digest of the source bytes and is the
// cache identity; size and modification time support cheap revalidation
// without re-reading the file.
type SourceInfo struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	SizeBytes   int64     `json:"size_bytes"`
	ModTime     time.Time `json:"mod_time"`
}

// Dataset is the immutable clean dataset: the ordered sequence of valid
// incidents plus the load metadata produced alongside them. It is built
// exactly once per distinct source fingerprint and never mutated afterwards,
// so concurrent readers share it without locking.
type Dataset struct {
	Records []Incident `json:"-"`

	Source   SourceInfo `json:"source"`
	LoadedAt time.Time  `json:"loaded_at"`

	// RawRows counts data rows seen in the source (header excluded).
	// DroppedRows counts rows discarded for an unparseable incident date.
	// RawRows == len(Records) + DroppedRows always holds.
	RawRows     int `json:"raw_rows"`
	DroppedRows int `json:"dropped_rows"`

	// AgeMedian is the median over all successfully parsed victim ages,
	// computed once over the full column before imputation. Zero when no
	// age parsed at all.
	AgeMedian float64 `json:"age_median"`

	// FirstIncident and LastIncident span the incident dates present in
	// Records. Zero values when the dataset is empty.
	FirstIncident time.Time `json:"first_incident"`
	LastIncident  time.Time `json:"last_incident"`
}

// Len returns the number of clean records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Empty reports whether the dataset holds no records
func (d *Dataset) Empty() bool {
	return len(d.Records) == 0
}
