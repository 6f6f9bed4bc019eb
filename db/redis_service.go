package db

import (
	"context"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/logger"
	"roster-server-go/models"
)

// Key layout:
//
//	{collection}       Set: every document id in the collection
//	{collection}:{id}  String: the document as canonical Extended JSON
const keySeparator = ":"

// RedisService is the Redis-backed Store. Documents are kept as Extended
// JSON so ObjectIDs come back as ObjectIDs.
type RedisService struct {
	Client *redis.Client
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{
		Client: client,
	}
}

// Helper to generate the id set key of a collection
func getCollectionKey(collection string) string {
	return collection
}

// Helper to generate a document key
func getDocumentKey(collection string, id primitive.ObjectID) string {
	return collection + keySeparator + id.Hex()
}

func encodeDocument(doc models.Document) (string, error) {
	data, err := bson.MarshalExtJSON(bson.M(doc), true, false)
	if err != nil {
		return "", errors.Wrap(err, "encoding document")
	}
	return string(data), nil
}

func decodeDocument(data string) (models.Document, error) {
	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(data), true, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding document")
	}
	return models.Document(doc), nil
}

func (s *RedisService) Insert(ctx context.Context, collection string, doc models.Document) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := make(models.Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored[models.IDField] = id

	data, err := encodeDocument(stored)
	if err != nil {
		return primitive.NilObjectID, err
	}

	pipe := s.Client.TxPipeline()
	pipe.SAdd(ctx, getCollectionKey(collection), id.Hex())
	pipe.Set(ctx, getDocumentKey(collection, id), data, 0)
	if _, err = pipe.Exec(ctx); err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "inserting document into '%s'", collection)
	}
	return id, nil
}

func (s *RedisService) FindOne(ctx context.Context, collection string, id primitive.ObjectID) (models.Document, error) {
	data, err := s.Client.Get(ctx, getDocumentKey(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "finding document '%s' in '%s'", id.Hex(), collection)
	}
	return decodeDocument(data)
}

func (s *RedisService) Find(ctx context.Context, collection string, filter models.Filter, limit int64) ([]models.Document, error) {
	ids, err := s.Client.SMembers(ctx, getCollectionKey(collection)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Wrapf(err, "listing ids of '%s'", collection)
	}
	// ObjectID hex strings sort by creation time
	sort.Strings(ids)

	docs := []models.Document{}
	for _, hex := range ids {
		if limit > NoLimit && int64(len(docs)) >= limit {
			break
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			logger.WithPrefix("db").WithField("collection", collection).Warnf("Skipping malformed id %q", hex)
			continue
		}
		doc, err := s.FindOne(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		// deleted between SMEMBERS and GET
		if doc == nil {
			continue
		}
		if matches(doc, filter) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// UpdateOne is a read-modify-write and is not atomic against concurrent writers.
func (s *RedisService) UpdateOne(ctx context.Context, collection string, id primitive.ObjectID, update models.Update) (bool, error) {
	if isEmptyUpdate(update) {
		return false, errEmptyUpdate(collection, id)
	}
	doc, err := s.FindOne(ctx, collection, id)
	if err != nil || doc == nil {
		return false, err
	}
	applyUpdate(doc, update)

	data, err := encodeDocument(doc)
	if err != nil {
		return false, err
	}
	if err = s.Client.Set(ctx, getDocumentKey(collection, id), data, 0).Err(); err != nil {
		return false, errors.Wrapf(err, "updating document '%s' in '%s'", id.Hex(), collection)
	}
	return true, nil
}

func (s *RedisService) DeleteOne(ctx context.Context, collection string, id primitive.ObjectID) (int64, error) {
	pipe := s.Client.TxPipeline()
	deleted := pipe.Del(ctx, getDocumentKey(collection, id))
	pipe.SRem(ctx, getCollectionKey(collection), id.Hex())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrapf(err, "deleting document '%s' from '%s'", id.Hex(), collection)
	}
	return deleted.Val(), nil
}

func (s *RedisService) Ping(ctx context.Context) error {
	return errors.Wrap(s.Client.Ping(ctx).Err(), "pinging Redis")
}

func (s *RedisService) Close(context.Context) error {
	return errors.Wrap(s.Client.Close(), "closing Redis client")
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "connecting to Redis at %s", addr)
	}

	logger.WithPrefix("db").WithField("redis_db", db).Info("Successfully connected to Redis")
	return rdb, nil
}
