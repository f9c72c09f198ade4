package repositories

import (
	"context"
	"time"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// DatasetRepository loads and persists a whole tabular dataset. A location is
// backend specific: a file or directory URL, a spreadsheet ID, a dataset key.
type DatasetRepository interface {
	Load(ctx context.Context, location string) (*entities.Dataset, error)
	// Save persists every table of the dataset at location. Implementations
	// either write the complete dataset or leave no partial artifact behind
	// where the backend allows it.
	Save(ctx context.Context, location string, dataset *entities.Dataset) error
	// OutputLocation names the artifact a run over input writes to
	OutputLocation(input, outputDir string, at time.Time) string
}

// ReleaseFunc releases a run lock
type ReleaseFunc func(ctx context.Context) error

// RunLocker serializes runs over the same dataset
type RunLocker interface {
	// Acquire takes the lock for dataset or fails with entities.ErrRunLocked
	Acquire(ctx context.Context, dataset string) (ReleaseFunc, error)
}
