package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

const (
	extension = ".csv"
	utf8BOM   = "\ufeff"
)

// Repository stores a dataset as a directory holding one <table>.csv per
// table. Locations are afs URLs.
type Repository struct {
	fs     afs.Service
	order  []string
	logger *zap.Logger
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*Repository)(nil)

// NewRepository creates a CSV directory repository. Loaded tables are ordered
// as the schema's ledger tables first, then the rest by name.
func NewRepository(fs afs.Service, schema entities.Schema, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{fs: fs, order: schema.RequiredTables(), logger: logger}
}

// Load reads every .csv file directly under the directory at location. The
// first record of a file is its header; records may be ragged.
func (r *Repository) Load(ctx context.Context, location string) (*entities.Dataset, error) {
	exists, err := r.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("directory %s: %w", location, entities.ErrDatasetNotFound)
	}

	objects, err := r.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", location, err)
	}

	tables := make(map[string]*entities.Table)
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(strings.ToLower(object.Name()), extension) {
			continue
		}

		data, err := r.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}

		name := object.Name()[:len(object.Name())-len(extension)]
		table, err := parseTable(name, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", object.URL(), err)
		}
		tables[name] = table
	}

	ds := entities.NewDataset()
	for _, name := range r.orderNames(tables) {
		ds.ReplaceTable(name, tables[name])
	}

	r.logger.Debug("csv directory loaded", zap.String("location", location), zap.Strings("tables", ds.TableNames()))
	return ds, nil
}

func (r *Repository) orderNames(tables map[string]*entities.Table) []string {
	names := make([]string, 0, len(tables))
	seen := make(map[string]bool)
	for _, name := range r.order {
		if _, ok := tables[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range tables {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func parseTable(name string, data []byte) (*entities.Table, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var header []string
	if len(records) > 0 {
		header = records[0]
		records = records[1:]
	}
	table := entities.NewTable(name, header)
	table.Rows = append(table.Rows, records...)
	return table, nil
}

// Save writes the dataset as a new directory at location. Files are staged
// in a sibling directory that is moved into place once every table is
// written; on failure the staging directory is removed.
func (r *Repository) Save(ctx context.Context, location string, dataset *entities.Dataset) error {
	exists, err := r.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check directory %s: %w", location, err)
	}
	if exists {
		return fmt.Errorf("output directory %s already exists", location)
	}

	staging := location + ".partial"
	if err := r.fs.Create(ctx, staging, file.DefaultDirOsMode, true); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", staging, err)
	}

	if err := r.writeTables(ctx, staging, dataset); err != nil {
		_ = r.fs.Delete(ctx, staging)
		return err
	}

	if err := r.fs.Move(ctx, staging, location); err != nil {
		_ = r.fs.Delete(ctx, staging)
		return fmt.Errorf("failed to move %s into %s: %w", staging, location, err)
	}

	r.logger.Debug("csv directory saved", zap.String("location", location), zap.Int("tables", len(dataset.TableNames())))
	return nil
}

func (r *Repository) writeTables(ctx context.Context, dir string, dataset *entities.Dataset) error {
	for _, name := range dataset.TableNames() {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("table name %q cannot be used as a file name", name)
		}
		table, err := dataset.ReadTable(name)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		writer := csv.NewWriter(&buf)
		if err := writer.Write(table.Columns); err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := writer.WriteAll(table.Rows); err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}

		target := repositories.JoinLocation(dir, name+extension)
		if err := r.fs.Upload(ctx, target, file.DefaultFileOsMode, &buf); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}
	return nil
}

// OutputLocation names a timestamped sibling directory of the input, or one
// in outputDir when given
func (r *Repository) OutputLocation(input, outputDir string, at time.Time) string {
	parent, name := repositories.SplitLocation(input)
	if outputDir != "" {
		parent = outputDir
	}
	return repositories.JoinLocation(parent, repositories.StampName(name, at))
}
