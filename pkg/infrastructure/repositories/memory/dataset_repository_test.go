package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

func TestDatasetRepository_SaveAndLoad(t *testing.T) {
	repo := NewDatasetRepository()
	ctx := context.Background()

	table := entities.NewTable("Stock-In-Hand", []string{"Part Number", "Qty"})
	table.Rows = append(table.Rows, []string{"A1", "10"})
	ds := entities.NewDataset(table)

	if err := repo.Save(ctx, "stock", ds); err != nil {
		t.Fatalf("Failed to save dataset: %v", err)
	}

	// mutating the caller's copy must not reach the stored one
	table.Rows[0][1] = "99"

	loaded, err := repo.Load(ctx, "stock")
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	got, err := loaded.ReadTable("Stock-In-Hand")
	if err != nil {
		t.Fatalf("Failed to read table: %v", err)
	}
	if got.Rows[0][1] != "10" {
		t.Errorf("Expected quantity 10, got %s", got.Rows[0][1])
	}

	if len(repo.Locations()) != 1 {
		t.Errorf("Expected 1 location, got %d", len(repo.Locations()))
	}
}

func TestDatasetRepository_LoadMissing(t *testing.T) {
	repo := NewDatasetRepository()

	_, err := repo.Load(context.Background(), "nowhere")
	if !errors.Is(err, entities.ErrDatasetNotFound) {
		t.Errorf("Expected ErrDatasetNotFound, got %v", err)
	}
}

func TestDatasetRepository_FailSaves(t *testing.T) {
	repo := NewDatasetRepository()
	boom := errors.New("disk full")
	repo.FailSaves(boom)

	err := repo.Save(context.Background(), "stock", entities.NewDataset())
	if !errors.Is(err, boom) {
		t.Errorf("Expected save error, got %v", err)
	}
	if _, ok := repo.Get("stock"); ok {
		t.Error("Expected nothing stored after a failed save")
	}
}

func TestDatasetRepository_OutputLocation(t *testing.T) {
	repo := NewDatasetRepository()
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	if got := repo.OutputLocation("stock", "", at); got != "stock" {
		t.Errorf("Expected in-place output, got %s", got)
	}
	if got := repo.OutputLocation("in/stock", "out", at); got != "out/stock_20240309_140507" {
		t.Errorf("Expected out/stock_20240309_140507, got %s", got)
	}
}
