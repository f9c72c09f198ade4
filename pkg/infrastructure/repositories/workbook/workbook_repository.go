package workbook

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

const extension = ".xlsx"

// number formats of date cells
const (
	dateFormat     = "yyyy-mm-dd"
	dateTimeFormat = "yyyy-mm-dd hh:mm:ss"
)

// dateLayouts are the renderings a date cell is read back as
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01-02-06",
	"1/2/06 15:04",
	"1/2/2006",
}

// Repository stores a dataset as an .xlsx workbook with one sheet per table.
// Locations are afs URLs, so local paths and object stores work alike.
type Repository struct {
	fs      afs.Service
	numeric map[string]bool
	dates   map[string]bool
	logger  *zap.Logger
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*Repository)(nil)

// NewRepository creates a workbook repository. Cells under the schema's
// numeric columns are written as numbers when they hold an integer, and cells
// under its date columns as dates when they parse as one.
func NewRepository(fs afs.Service, schema entities.Schema, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	numeric := make(map[string]bool)
	for _, column := range schema.NumericColumns() {
		numeric[strings.TrimSpace(column)] = true
	}
	dates := make(map[string]bool)
	for _, column := range schema.DateColumns() {
		dates[strings.TrimSpace(column)] = true
	}
	return &Repository{fs: fs, numeric: numeric, dates: dates, logger: logger}
}

// Load reads every sheet of the workbook at location. The first row of a
// sheet is its header.
func (r *Repository) Load(ctx context.Context, location string) (*entities.Dataset, error) {
	exists, err := r.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check workbook %s: %w", location, err)
	}
	if !exists {
		return nil, fmt.Errorf("workbook %s: %w", location, entities.ErrDatasetNotFound)
	}

	data, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", location, err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", location, err)
	}
	defer f.Close()

	ds := entities.NewDataset()
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, location, err)
		}

		var header []string
		if len(rows) > 0 {
			header = rows[0]
			rows = rows[1:]
		}
		table := entities.NewTable(sheet, header)
		table.Rows = append(table.Rows, rows...)
		ds.ReplaceTable(sheet, table)
	}

	r.logger.Debug("workbook loaded",
		zap.String("location", location),
		zap.Strings("sheets", ds.TableNames()),
	)
	return ds, nil
}

// Save writes the dataset as a new workbook at location. The bytes are
// uploaded to a sibling temporary object first and moved into place, so a
// failed save leaves no partial workbook behind.
func (r *Repository) Save(ctx context.Context, location string, dataset *entities.Dataset) error {
	data, err := r.render(dataset)
	if err != nil {
		return err
	}

	partial := location + ".partial"
	if err := r.fs.Upload(ctx, partial, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		_ = r.fs.Delete(ctx, partial)
		return fmt.Errorf("failed to upload workbook %s: %w", location, err)
	}
	if err := r.fs.Move(ctx, partial, location); err != nil {
		_ = r.fs.Delete(ctx, partial)
		return fmt.Errorf("failed to move workbook into %s: %w", location, err)
	}

	r.logger.Debug("workbook saved", zap.String("location", location), zap.Int("bytes", len(data)))
	return nil
}

// render lays the dataset out as workbook bytes
func (r *Repository) render(dataset *entities.Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newCellStyles(f)
	if err != nil {
		return nil, err
	}

	const defaultSheet = "Sheet1"
	for i, name := range dataset.TableNames() {
		table, err := dataset.ReadTable(name)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}

		if err := r.writeTable(f, name, table, styles); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Repository) writeTable(f *excelize.File, sheet string, table *entities.Table, styles cellStyles) error {
	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, value := range row {
			cells[j] = r.cellValue(table, j, value)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
		for j, value := range cells {
			at, ok := value.(time.Time)
			if !ok {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, name, name, styles.forTime(at)); err != nil {
				return fmt.Errorf("failed to format %s of %s: %w", name, sheet, err)
			}
		}
	}
	return nil
}

type cellStyles struct {
	date     int
	dateTime int
}

func newCellStyles(f *excelize.File) (cellStyles, error) {
	var styles cellStyles
	var err error
	format := dateFormat
	if styles.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &format}); err != nil {
		return styles, fmt.Errorf("failed to create date style: %w", err)
	}
	withClock := dateTimeFormat
	if styles.dateTime, err = f.NewStyle(&excelize.Style{CustomNumFmt: &withClock}); err != nil {
		return styles, fmt.Errorf("failed to create date style: %w", err)
	}
	return styles, nil
}

func (s cellStyles) forTime(at time.Time) int {
	if at.Hour() == 0 && at.Minute() == 0 && at.Second() == 0 {
		return s.date
	}
	return s.dateTime
}

// cellValue types a cell: integers under numeric columns become numbers and
// dates under date columns become dates, so the workbook stays usable for
// sums, filters and sorting
func (r *Repository) cellValue(table *entities.Table, column int, value string) interface{} {
	if column >= len(table.Columns) {
		return value
	}
	name := strings.TrimSpace(table.Columns[column])
	text := strings.TrimSpace(value)
	if r.numeric[name] {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	}
	if r.dates[name] {
		for _, layout := range dateLayouts {
			if at, err := time.Parse(layout, text); err == nil {
				return at
			}
		}
	}
	return value
}

// OutputLocation names a timestamped workbook next to the input, or in
// outputDir when given: stock.xlsx becomes stock_20240309_140507.xlsx
func (r *Repository) OutputLocation(input, outputDir string, at time.Time) string {
	parent, name := repositories.SplitLocation(input)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == "" {
		ext = extension
	}
	if outputDir != "" {
		parent = outputDir
	}
	return repositories.JoinLocation(parent, repositories.StampName(stem, at)+ext)
}
