package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"roster-server-go/logger"
	"roster-server-go/models"
)

// DefaultDatabase is used when the connection string names no database.
const DefaultDatabase = "test_database"

const connectTimeout = 10 * time.Second

// MongoService is the MongoDB-backed Store.
type MongoService struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongoService creates a MongoService over an already connected client.
func NewMongoService(client *mongo.Client, dbName string) *MongoService {
	return &MongoService{
		Client: client,
		DB:     client.Database(dbName),
	}
}

// DatabaseFromURI returns the database named in the connection string path.
func DatabaseFromURI(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", errors.Wrap(err, "parsing connection string")
	}
	if cs.Database == "" {
		return DefaultDatabase, nil
	}
	return cs.Database, nil
}

// InitializeMongoClient connects to MongoDB and pings the primary.
func InitializeMongoClient(ctx context.Context, uri string) (*mongo.Client, string, error) {
	dbName, err := DatabaseFromURI(uri)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, "", errors.Wrap(err, "connecting to MongoDB")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, "", errors.Wrap(err, "pinging MongoDB")
	}

	logger.WithPrefix("db").WithField("database", dbName).Info("Successfully connected to MongoDB")
	return client, dbName, nil
}

func (s *MongoService) Insert(ctx context.Context, collection string, doc models.Document) (primitive.ObjectID, error) {
	res, err := s.DB.Collection(collection).InsertOne(ctx, bson.M(doc))
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "inserting document into '%s'", collection)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.Errorf("unexpected identifier type %T from insert into '%s'", res.InsertedID, collection)
	}
	return id, nil
}

func (s *MongoService) FindOne(ctx context.Context, collection string, id primitive.ObjectID) (models.Document, error) {
	var doc bson.M
	err := s.DB.Collection(collection).FindOne(ctx, bson.M{models.IDField: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding document '%s' in '%s'", id.Hex(), collection)
	}
	return models.Document(doc), nil
}

func (s *MongoService) Find(ctx context.Context, collection string, filter models.Filter, limit int64) ([]models.Document, error) {
	opts := options.Find()
	if limit > NoLimit {
		opts.SetLimit(limit)
	}
	query := bson.M{}
	for field, value := range filter {
		query[field] = value
	}

	cursor, err := s.DB.Collection(collection).Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "querying '%s'", collection)
	}
	var raw []bson.M
	if err = cursor.All(ctx, &raw); err != nil {
		return nil, errors.Wrapf(err, "reading cursor for '%s'", collection)
	}

	docs := make([]models.Document, 0, len(raw))
	for _, doc := range raw {
		docs = append(docs, models.Document(doc))
	}
	return docs, nil
}

func (s *MongoService) UpdateOne(ctx context.Context, collection string, id primitive.ObjectID, update models.Update) (bool, error) {
	if isEmptyUpdate(update) {
		return false, errEmptyUpdate(collection, id)
	}
	change := bson.M{}
	if len(update.Set) > 0 {
		change["$set"] = bson.M(update.Set)
	}
	if len(update.Unset) > 0 {
		unset := bson.M{}
		for _, field := range update.Unset {
			unset[field] = ""
		}
		change["$unset"] = unset
	}

	res, err := s.DB.Collection(collection).UpdateOne(ctx, bson.M{models.IDField: id}, change)
	if err != nil {
		return false, errors.Wrapf(err, "updating document '%s' in '%s'", id.Hex(), collection)
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoService) DeleteOne(ctx context.Context, collection string, id primitive.ObjectID) (int64, error) {
	res, err := s.DB.Collection(collection).DeleteOne(ctx, bson.M{models.IDField: id})
	if err != nil {
		return 0, errors.Wrapf(err, "deleting document '%s' from '%s'", id.Hex(), collection)
	}
	return res.DeletedCount, nil
}

func (s *MongoService) Ping(ctx context.Context) error {
	return errors.Wrap(s.Client.Ping(ctx, nil), "pinging MongoDB")
}

func (s *MongoService) Close(ctx context.Context) error {
	return errors.Wrap(s.Client.Disconnect(ctx), "disconnecting from MongoDB")
}
