package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

// LoadSchema returns the ledger schema. Without a location the default
// workbook layout is used; otherwise the YAML file at location (any afs URL)
// overrides individual table and column names, e.g.
//
//	tables:
//	  inventory: Stock
//	columns:
//	  quantity: On Hand
func LoadSchema(ctx context.Context, fs afs.Service, location string) (entities.Schema, error) {
	schema := entities.DefaultSchema()
	if location == "" {
		return schema, nil
	}

	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return schema, fmt.Errorf("failed to read schema file %s: %w", location, err)
	}

	var override entities.Schema
	if err := yaml.Unmarshal(data, &override); err != nil {
		return schema, fmt.Errorf("failed to parse schema file %s: %w", location, err)
	}

	schema = schema.Merge(override)
	if err := schema.Validate(); err != nil {
		return schema, fmt.Errorf("schema file %s: %w", location, err)
	}
	return schema, nil
}
