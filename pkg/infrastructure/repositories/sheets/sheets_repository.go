package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

// Repository stores a dataset in a Google spreadsheet, one tab per table.
// A location is a spreadsheet ID.
type Repository struct {
	service *sheetsapi.Service
	logger  *zap.Logger
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*Repository)(nil)

// NewRepository builds a Google Sheets backed repository. Pass
// option.WithCredentialsFile for a service account.
func NewRepository(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts = append([]option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}, opts...)
	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &Repository{service: service, logger: logger}, nil
}

// Load reads every tab of the spreadsheet; the first row of a tab is its header
func (r *Repository) Load(ctx context.Context, spreadsheetID string) (*entities.Dataset, error) {
	titles, err := r.sheetTitles(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	ds := entities.NewDataset()
	if len(titles) == 0 {
		return ds, nil
	}

	ranges := make([]string, len(titles))
	for i, title := range titles {
		ranges[i] = quoteTitle(title)
	}

	resp, err := r.service.Spreadsheets.Values.BatchGet(spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(resp.ValueRanges) != len(titles) {
		return nil, fmt.Errorf("read spreadsheet %s: expected %d ranges, got %d", spreadsheetID, len(titles), len(resp.ValueRanges))
	}

	for i, title := range titles {
		rows := toStrings(resp.ValueRanges[i].Values)
		var header []string
		if len(rows) > 0 {
			header = rows[0]
			rows = rows[1:]
		}
		table := entities.NewTable(title, header)
		table.Rows = append(table.Rows, rows...)
		ds.ReplaceTable(title, table)
	}

	r.logger.Debug("spreadsheet loaded", zap.String("spreadsheet_id", spreadsheetID), zap.Strings("tabs", titles))
	return ds, nil
}

// Save adds missing tabs, clears every tab it writes and writes all tables in
// one values batch. Tabs the dataset does not name are left alone.
func (r *Repository) Save(ctx context.Context, spreadsheetID string, dataset *entities.Dataset) error {
	titles, err := r.sheetTitles(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(titles))
	for _, title := range titles {
		existing[title] = true
	}

	var requests []*sheetsapi.Request
	for _, name := range dataset.TableNames() {
		if !existing[name] {
			requests = append(requests, &sheetsapi.Request{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: name},
				},
			})
		}
	}
	if len(requests) > 0 {
		if _, err := r.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add tabs to spreadsheet %s: %w", spreadsheetID, err)
		}
	}

	ranges := make([]string, 0, len(dataset.TableNames()))
	data := make([]*sheetsapi.ValueRange, 0, len(dataset.TableNames()))
	for _, name := range dataset.TableNames() {
		table, err := dataset.ReadTable(name)
		if err != nil {
			return err
		}
		ranges = append(ranges, quoteTitle(name))
		data = append(data, &sheetsapi.ValueRange{
			Range:  quoteTitle(name) + "!A1",
			Values: toValues(table),
		})
	}

	if _, err := r.service.Spreadsheets.Values.BatchClear(spreadsheetID, &sheetsapi.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear spreadsheet %s: %w", spreadsheetID, err)
	}

	if _, err := r.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write spreadsheet %s: %w", spreadsheetID, err)
	}

	r.logger.Debug("spreadsheet saved", zap.String("spreadsheet_id", spreadsheetID), zap.Int("tabs", len(data)))
	return nil
}

// OutputLocation writes back to the input spreadsheet unless another
// spreadsheet ID is given
func (r *Repository) OutputLocation(input, outputDir string, _ time.Time) string {
	if outputDir != "" {
		return outputDir
	}
	return input
}

func (r *Repository) sheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	spreadsheet, err := r.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

// quoteTitle quotes a tab title for A1 notation
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}

func toValues(table *entities.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(table.Rows)+1)
	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	values = append(values, header)
	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}
	return values
}
