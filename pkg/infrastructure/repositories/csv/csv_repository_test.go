package csv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	testhelpers "github.com/vsinha/stockpick/pkg/infrastructure/testing"
)

func newRepo() *Repository {
	return NewRepository(afs.New(), entities.DefaultSchema(), nil)
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	location := filepath.Join(t.TempDir(), "ledger")

	ds := testhelpers.BuildWarehouseDataset()
	require.NoError(t, repo.Save(ctx, location, ds))

	_, err := os.Stat(location + ".partial")
	assert.True(t, os.IsNotExist(err))
	for _, name := range ds.TableNames() {
		_, err := os.Stat(filepath.Join(location, name+".csv"))
		assert.NoError(t, err, name)
	}

	loaded, err := repo.Load(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, ds.TableNames(), loaded.TableNames())

	for _, name := range ds.TableNames() {
		want, err := ds.ReadTable(name)
		require.NoError(t, err)
		got, err := loaded.ReadTable(name)
		require.NoError(t, err)
		assert.Equal(t, want.Columns, got.Columns, name)
		assert.Equal(t, want.Rows, got.Rows, name)
	}
}

func TestRepository_LoadRaggedWithBOM(t *testing.T) {
	dir := t.TempDir()
	content := "\ufeffSl No,Part Number,Part Description,Qty\n1,A1,\"Widget, large\",10\n2,B2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Stock-In-Hand.csv"), []byte(content), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o600))

	ds, err := newRepo().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock-In-Hand"}, ds.TableNames())

	table, err := ds.ReadTable("Stock-In-Hand")
	require.NoError(t, err)
	assert.Equal(t, "Sl No", table.Columns[0])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Widget, large", table.Rows[0][2])
	assert.Equal(t, "", table.Record(1).Value("Qty"))
}

func TestRepository_TableOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Zeta", "Not-Available", "Alpha", "Stock-In-Hand"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte("h\n"), 0o600))
	}

	ds, err := newRepo().Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock-In-Hand", "Not-Available", "Alpha", "Zeta"}, ds.TableNames())
}

func TestRepository_SaveFailureLeavesNothing(t *testing.T) {
	location := filepath.Join(t.TempDir(), "ledger")
	ds := entities.NewDataset(
		entities.NewTable("ok", []string{"a"}),
		entities.NewTable("bad/name", []string{"b"}),
	)

	err := newRepo().Save(context.Background(), location, ds)
	require.Error(t, err)

	_, statErr := os.Stat(location)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(location + ".partial")
	assert.True(t, os.IsNotExist(statErr))
}

func TestRepository_SaveRefusesExisting(t *testing.T) {
	location := t.TempDir()
	err := newRepo().Save(context.Background(), location, entities.NewDataset())
	assert.Error(t, err)
}

func TestRepository_LoadMissing(t *testing.T) {
	_, err := newRepo().Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, entities.ErrDatasetNotFound))
}

func TestRepository_OutputLocation(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	repo := newRepo()

	assert.Equal(t, "data/ledger_20240309_140507", repo.OutputLocation("data/ledger", "", at))
	assert.Equal(t, "data/ledger_20240309_140507", repo.OutputLocation("data/ledger/", "", at))
	assert.Equal(t, "out/ledger_20240309_140507", repo.OutputLocation("data/ledger_20240101_000000", "out", at))
}
