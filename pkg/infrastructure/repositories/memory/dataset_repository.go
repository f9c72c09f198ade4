package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

// DatasetRepository provides in-memory dataset storage keyed by location
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets map[string]*entities.Dataset
	saveErr  error
}

// NewDatasetRepository creates a new in-memory dataset repository
func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{
		datasets: make(map[string]*entities.Dataset),
	}
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*DatasetRepository)(nil)

// Put stores a copy of dataset at location
func (r *DatasetRepository) Put(location string, dataset *entities.Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[location] = dataset.Clone()
}

// Get returns a copy of the dataset stored at location
func (r *DatasetRepository) Get(location string) (*entities.Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.datasets[location]
	if !ok {
		return nil, false
	}
	return ds.Clone(), true
}

// Locations returns every location holding a dataset
func (r *DatasetRepository) Locations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	locations := make([]string, 0, len(r.datasets))
	for location := range r.datasets {
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return locations
}

// FailSaves makes every following Save fail with err; nil restores saving
func (r *DatasetRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// Load returns a copy of the dataset stored at location
func (r *DatasetRepository) Load(_ context.Context, location string) (*entities.Dataset, error) {
	ds, ok := r.Get(location)
	if !ok {
		return nil, fmt.Errorf("location %s: %w", location, entities.ErrDatasetNotFound)
	}
	return ds, nil
}

// Save stores a copy of dataset at location
func (r *DatasetRepository) Save(_ context.Context, location string, dataset *entities.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.datasets[location] = dataset.Clone()
	return nil
}

// OutputLocation writes in place unless outputDir is given
func (r *DatasetRepository) OutputLocation(input, outputDir string, at time.Time) string {
	if outputDir == "" {
		return input
	}
	return path.Join(outputDir, repositories.StampName(path.Base(input), at))
}
