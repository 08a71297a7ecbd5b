package dataprocessing

import (
	"strings"

	"bitewatch/pkg/contracts/domain"
)

// NormalizeCategory canonicalizes one categorical cell: uppercase and trim,
// with empty cells and not-available markers collapsing to UNKNOWN. Runs
// last in the pipeline so every transform that reads raw values has already
// seen them.
func NormalizeCategory(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch v {
	case "", "NAN", "N/A":
		return domain.UnknownValue
	}
	return v
}
