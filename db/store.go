package db

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/config"
	"roster-server-go/models"
)

// NoLimit disables the result cap on Find.
const NoLimit int64 = 0

// Store is the document-store contract the record service is written against.
// Implementations must be safe for concurrent use.
type Store interface {
	// Insert stores doc and returns the identifier the store assigned to it.
	Insert(ctx context.Context, collection string, doc models.Document) (primitive.ObjectID, error)
	// FindOne returns (nil, nil) when no document has the given identifier.
	FindOne(ctx context.Context, collection string, id primitive.ObjectID) (models.Document, error)
	// Find returns the documents matching filter, at most limit of them unless limit is NoLimit.
	Find(ctx context.Context, collection string, filter models.Filter, limit int64) ([]models.Document, error)
	// UpdateOne reports whether a document with the identifier existed.
	UpdateOne(ctx context.Context, collection string, id primitive.ObjectID, update models.Update) (bool, error)
	// DeleteOne returns the number of documents removed (0 or 1).
	DeleteOne(ctx context.Context, collection string, id primitive.ObjectID) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NewStore connects the backend selected in the configuration.
func NewStore(ctx context.Context, conf *config.Config) (Store, error) {
	switch conf.StoreBackend {
	case config.BackendMongo:
		client, dbName, err := InitializeMongoClient(ctx, conf.MongoURL)
		if err != nil {
			return nil, err
		}
		return NewMongoService(client, dbName), nil
	case config.BackendRedis:
		client, err := InitializeRedisClient(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisService(client), nil
	case config.BackendMemory:
		return NewMemoryService(), nil
	}
	return nil, errors.Errorf("unknown store backend '%s'", conf.StoreBackend)
}

func errEmptyUpdate(collection string, id primitive.ObjectID) error {
	return errors.Errorf("empty update for document '%s' in collection '%s'", id.Hex(), collection)
}

func isEmptyUpdate(update models.Update) bool {
	return len(update.Set) == 0 && len(update.Unset) == 0
}

// matches applies equality filter semantics to an already loaded document.
// Backends that cannot push the filter down to the server use it.
func matches(doc models.Document, filter models.Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	if id, ok := a.(primitive.ObjectID); ok {
		other, ok := b.(primitive.ObjectID)
		return ok && id == other
	}
	return reflect.DeepEqual(a, b)
}

// applyUpdate mutates doc in place.
func applyUpdate(doc models.Document, update models.Update) {
	for field, value := range update.Set {
		doc[field] = value
	}
	for _, field := range update.Unset {
		delete(doc, field)
	}
}
