package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

// schemaStatements create the generic table store. A dataset is a key; each
// of its tables keeps its position and header, each row its cells as a JSON
// array so ragged rows and carried columns survive unchanged.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stock_tables (
		dataset VARCHAR(191) NOT NULL,
		name VARCHAR(191) NOT NULL,
		position INT NOT NULL,
		columns_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (dataset, name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS stock_rows (
		dataset VARCHAR(191) NOT NULL,
		table_name VARCHAR(191) NOT NULL,
		row_index INT NOT NULL,
		cells_json TEXT NOT NULL,
		PRIMARY KEY (dataset, table_name, row_index)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Repository stores datasets in MySQL. A location is a dataset key.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*Repository)(nil)

// Open connects to MySQL with dsn and verifies the connection.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int, maxLifetime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewRepository wraps an open database
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// EnsureSchema creates the store tables when they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create store tables: %w", err)
		}
	}
	return nil
}

// Load reads every table of the dataset in position order
func (r *Repository) Load(ctx context.Context, dataset string) (*entities.Dataset, error) {
	tableRows, err := r.db.QueryContext(ctx,
		`SELECT name, columns_json FROM stock_tables WHERE dataset = ? ORDER BY position`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables of %s: %w", dataset, err)
	}

	ds := entities.NewDataset()
	for tableRows.Next() {
		var name, columnsJSON string
		if err := tableRows.Scan(&name, &columnsJSON); err != nil {
			tableRows.Close()
			return nil, fmt.Errorf("failed to scan table of %s: %w", dataset, err)
		}
		var columns []string
		if err := json.Unmarshal([]byte(columnsJSON), &columns); err != nil {
			tableRows.Close()
			return nil, fmt.Errorf("table %s of %s: bad header: %w", name, dataset, err)
		}
		ds.ReplaceTable(name, entities.NewTable(name, columns))
	}
	if err := tableRows.Err(); err != nil {
		tableRows.Close()
		return nil, fmt.Errorf("failed to read tables of %s: %w", dataset, err)
	}
	tableRows.Close()

	if len(ds.TableNames()) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", dataset, entities.ErrDatasetNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT table_name, cells_json FROM stock_rows WHERE dataset = ? ORDER BY table_name, row_index`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows of %s: %w", dataset, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, cellsJSON string
		if err := rows.Scan(&tableName, &cellsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", dataset, err)
		}
		table, err := ds.ReadTable(tableName)
		if err != nil {
			// rows of a table that no longer has a header entry
			continue
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("table %s of %s: bad row: %w", tableName, dataset, err)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", dataset, err)
	}

	r.logger.Debug("dataset loaded", zap.String("dataset", dataset), zap.Strings("tables", ds.TableNames()))
	return ds, nil
}

// Save replaces every table of the dataset inside one transaction
func (r *Repository) Save(ctx context.Context, dataset string, ds *entities.Dataset) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM stock_rows WHERE dataset = ?`, dataset); err != nil {
		return fmt.Errorf("failed to clear rows of %s: %w", dataset, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM stock_tables WHERE dataset = ?`, dataset); err != nil {
		return fmt.Errorf("failed to clear tables of %s: %w", dataset, err)
	}

	now := time.Now().UTC()
	for position, name := range ds.TableNames() {
		table, rerr := ds.ReadTable(name)
		if rerr != nil {
			err = rerr
			return err
		}

		columnsJSON, jerr := json.Marshal(table.Columns)
		if jerr != nil {
			err = jerr
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO stock_tables (dataset, name, position, columns_json, updated_at) VALUES (?, ?, ?, ?, ?)`,
			dataset, name, position, string(columnsJSON), now); err != nil {
			return fmt.Errorf("failed to write table %s: %w", name, err)
		}

		for i, row := range table.Rows {
			cellsJSON, jerr := json.Marshal(row)
			if jerr != nil {
				err = jerr
				return err
			}
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO stock_rows (dataset, table_name, row_index, cells_json) VALUES (?, ?, ?, ?)`,
				dataset, name, i, string(cellsJSON)); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", i+1, name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset %s: %w", dataset, err)
	}

	r.logger.Debug("dataset saved", zap.String("dataset", dataset), zap.Int("tables", len(ds.TableNames())))
	return nil
}

// OutputLocation writes back to the input dataset unless another key is given
func (r *Repository) OutputLocation(input, outputDir string, _ time.Time) string {
	if outputDir != "" {
		return outputDir
	}
	return input
}
