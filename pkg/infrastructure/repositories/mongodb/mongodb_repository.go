package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
)

const collectionName = "datasets"

// datasetDocument holds a whole dataset so a save is a single atomic upsert
type datasetDocument struct {
	Dataset   string          `bson:"_id"`
	Tables    []tableDocument `bson:"tables"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

type tableDocument struct {
	Name    string     `bson:"name"`
	Columns []string   `bson:"columns"`
	Rows    [][]string `bson:"rows"`
}

// Repository stores datasets in MongoDB. A location is a dataset key.
type Repository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// Verify interface compliance
var _ repositories.DatasetRepository = (*Repository)(nil)

// Connect opens a client for uri and pings the deployment.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewRepository creates a repository over dbName
func NewRepository(client *mongo.Client, dbName string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{client: client, dbName: dbName, collName: collectionName, logger: logger}
}

func (r *Repository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// Load reads the dataset stored under key
func (r *Repository) Load(ctx context.Context, key string) (*entities.Dataset, error) {
	var doc datasetDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("dataset %s: %w", key, entities.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", key, err)
	}

	ds := entities.NewDataset()
	for _, t := range doc.Tables {
		table := entities.NewTable(t.Name, t.Columns)
		table.Rows = append(table.Rows, t.Rows...)
		ds.ReplaceTable(t.Name, table)
	}

	r.logger.Debug("dataset loaded", zap.String("dataset", key), zap.Strings("tables", ds.TableNames()))
	return ds, nil
}

// Save replaces the dataset stored under key
func (r *Repository) Save(ctx context.Context, key string, ds *entities.Dataset) error {
	doc := datasetDocument{Dataset: key, UpdatedAt: time.Now().UTC()}
	for _, name := range ds.TableNames() {
		table, err := ds.ReadTable(name)
		if err != nil {
			return err
		}
		doc.Tables = append(doc.Tables, tableDocument{Name: name, Columns: table.Columns, Rows: table.Rows})
	}

	_, err := r.collection().ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save dataset %s: %w", key, err)
	}

	r.logger.Debug("dataset saved", zap.String("dataset", key), zap.Int("tables", len(doc.Tables)))
	return nil
}

// OutputLocation writes back to the input dataset unless another key is given
func (r *Repository) OutputLocation(input, outputDir string, _ time.Time) string {
	if outputDir != "" {
		return outputDir
	}
	return input
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
