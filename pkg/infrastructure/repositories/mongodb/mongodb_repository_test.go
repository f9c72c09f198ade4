package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/vsinha/stockpick/pkg/domain/entities"
)

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("load", func(mt *mtest.T) {
		repo := NewRepository(mt.Client, "stockpick", nil)
		ns := "stockpick." + collectionName

		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "ledger"},
			{Key: "tables", Value: bson.A{
				bson.D{
					{Key: "name", Value: "Stock-In-Hand"},
					{Key: "columns", Value: bson.A{"Part Number", "Qty"}},
					{Key: "rows", Value: bson.A{bson.A{"A1", "10"}, bson.A{"B2"}}},
				},
				bson.D{
					{Key: "name", Value: "New-Order"},
					{Key: "columns", Value: bson.A{"Part Number", "Req-Qty"}},
					{Key: "rows", Value: bson.A{}},
				},
			}},
		}))

		ds, err := repo.Load(context.Background(), "ledger")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Stock-In-Hand", "New-Order"}, ds.TableNames())

		stock, err := ds.ReadTable("Stock-In-Hand")
		require.NoError(mt, err)
		assert.Equal(mt, []string{"Part Number", "Qty"}, stock.Columns)
		assert.Equal(mt, [][]string{{"A1", "10"}, {"B2"}}, stock.Rows)

		orders, err := ds.ReadTable("New-Order")
		require.NoError(mt, err)
		assert.Empty(mt, orders.Rows)
	})

	mt.Run("load missing", func(mt *mtest.T) {
		repo := NewRepository(mt.Client, "stockpick", nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "stockpick."+collectionName, mtest.FirstBatch))

		_, err := repo.Load(context.Background(), "nothing")
		assert.True(mt, errors.Is(err, entities.ErrDatasetNotFound))
	})

	mt.Run("save", func(mt *mtest.T) {
		repo := NewRepository(mt.Client, "stockpick", nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		stock := entities.NewTable("Stock-In-Hand", []string{"Part Number", "Qty"})
		stock.Rows = append(stock.Rows, []string{"A1", "10"})
		require.NoError(mt, repo.Save(context.Background(), "ledger", entities.NewDataset(stock)))
	})

	mt.Run("save error", func(mt *mtest.T) {
		repo := NewRepository(mt.Client, "stockpick", nil)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    10334,
			Message: "document too large",
		}))

		err := repo.Save(context.Background(), "ledger", entities.NewDataset())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "document too large")
	})
}
