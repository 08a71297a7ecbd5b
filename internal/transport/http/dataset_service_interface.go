package http

import (
	"context"
	"time"

	"bitewatch/internal/services"
	api "bitewatch/pkg/contracts/api/v1"
	"bitewatch/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset lifecycle operations the
// handlers consume. Implemented by services.DatasetService.
type DatasetServiceInterface interface {
	// Current returns the loaded dataset or ErrDatasetUnloaded.
	Current(ctx context.Context) (*domain.Dataset, error)

	// Reload revalidates the source and rebuilds the dataset when it
	// changed. Force skips the stat-based fast path.
	Reload(ctx context.Context, force bool) (services.ReloadOutcome, error)
}

// OptionsProviderInterface exposes the distinct-value inventory that
// filter pickers are built from. Implemented by services.QueryService.
type OptionsProviderInterface interface {
	Options(ctx context.Context, from, to *time.Time) (*api.OptionsResponse, error)
}
