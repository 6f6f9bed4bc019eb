package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/config"
	"roster-server-go/models"
)

// testStores returns the backends to run the contract against. Redis and
// MongoDB are only exercised when REDIS_TEST_ADDR / MONGODB_TEST_URL point at
// disposable servers.
func testStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stores := map[string]Store{"memory": NewMemoryService()}

	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		client, err := InitializeRedisClient(ctx, addr, "", 15)
		require.NoError(t, err)
		require.NoError(t, client.FlushDB(ctx).Err())
		stores["redis"] = NewRedisService(client)
	}
	if uri := os.Getenv("MONGODB_TEST_URL"); uri != "" {
		client, dbName, err := InitializeMongoClient(ctx, uri)
		require.NoError(t, err)
		require.NoError(t, client.Database(dbName).Drop(ctx))
		stores["mongo"] = NewMongoService(client, dbName)
	}

	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close(context.Background())
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	for name, store := range testStores(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			t.Run("InsertAndFindOne", func(t *testing.T) {
				ctx := context.Background()
				id, err := store.Insert(ctx, "contract_insert", models.Document{"name": "A", "age": 12.0})
				require.NoError(t, err)
				assert.False(t, id.IsZero())

				doc, err := store.FindOne(ctx, "contract_insert", id)
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, id, doc[models.IDField])
				assert.Equal(t, "A", doc["name"])
				assert.Equal(t, 12.0, doc["age"])
			})

			t.Run("IntegersStayIntegers", func(t *testing.T) {
				ctx := context.Background()
				id, err := store.Insert(ctx, "contract_ints", models.Document{"age": int64(20), "n": int64(9007199254740993)})
				require.NoError(t, err)

				doc, err := store.FindOne(ctx, "contract_ints", id)
				require.NoError(t, err)
				require.NotNil(t, doc)
				assert.Equal(t, int64(20), doc["age"])
				assert.Equal(t, int64(9007199254740993), doc["n"])
			})

			t.Run("FindOneMissing", func(t *testing.T) {
				doc, err := store.FindOne(context.Background(), "contract_missing", primitive.NewObjectID())
				require.NoError(t, err)
				assert.Nil(t, doc)
			})

			t.Run("FindFilterAndLimit", func(t *testing.T) {
				ctx := context.Background()
				group := primitive.NewObjectID()
				for i := 0; i < 3; i++ {
					_, err := store.Insert(ctx, "contract_find", models.Document{models.GroupIDField: group})
					require.NoError(t, err)
				}
				_, err := store.Insert(ctx, "contract_find", models.Document{models.GroupIDField: primitive.NewObjectID()})
				require.NoError(t, err)
				_, err = store.Insert(ctx, "contract_find", models.Document{"name": "loner"})
				require.NoError(t, err)

				all, err := store.Find(ctx, "contract_find", models.Filter{}, NoLimit)
				require.NoError(t, err)
				assert.Len(t, all, 5)

				inGroup, err := store.Find(ctx, "contract_find", models.Filter{models.GroupIDField: group}, NoLimit)
				require.NoError(t, err)
				assert.Len(t, inGroup, 3)

				capped, err := store.Find(ctx, "contract_find", models.Filter{models.GroupIDField: group}, 2)
				require.NoError(t, err)
				assert.Len(t, capped, 2)

				// a hex string does not match an ObjectID reference
				none, err := store.Find(ctx, "contract_find", models.Filter{models.GroupIDField: group.Hex()}, NoLimit)
				require.NoError(t, err)
				assert.Empty(t, none)
			})

			t.Run("FindEmptyCollection", func(t *testing.T) {
				docs, err := store.Find(context.Background(), "contract_empty", models.Filter{}, NoLimit)
				require.NoError(t, err)
				assert.NotNil(t, docs)
				assert.Empty(t, docs)
			})

			t.Run("UpdateSetAndUnset", func(t *testing.T) {
				ctx := context.Background()
				group := primitive.NewObjectID()
				id, err := store.Insert(ctx, "contract_update", models.Document{"name": "A"})
				require.NoError(t, err)

				ok, err := store.UpdateOne(ctx, "contract_update", id, models.Update{Set: map[string]interface{}{models.GroupIDField: group}})
				require.NoError(t, err)
				assert.True(t, ok)

				doc, err := store.FindOne(ctx, "contract_update", id)
				require.NoError(t, err)
				assert.Equal(t, group, doc[models.GroupIDField])

				ok, err = store.UpdateOne(ctx, "contract_update", id, models.Update{Unset: []string{models.GroupIDField}})
				require.NoError(t, err)
				assert.True(t, ok)

				doc, err = store.FindOne(ctx, "contract_update", id)
				require.NoError(t, err)
				assert.NotContains(t, doc, models.GroupIDField)
				assert.Equal(t, "A", doc["name"])

				ok, err = store.UpdateOne(ctx, "contract_update", primitive.NewObjectID(), models.Update{Unset: []string{"name"}})
				require.NoError(t, err)
				assert.False(t, ok)

				_, err = store.UpdateOne(ctx, "contract_update", id, models.Update{})
				assert.Error(t, err)
			})

			t.Run("DeleteOne", func(t *testing.T) {
				ctx := context.Background()
				id, err := store.Insert(ctx, "contract_delete", models.Document{"name": "A"})
				require.NoError(t, err)

				n, err := store.DeleteOne(ctx, "contract_delete", id)
				require.NoError(t, err)
				assert.EqualValues(t, 1, n)

				n, err = store.DeleteOne(ctx, "contract_delete", id)
				require.NoError(t, err)
				assert.EqualValues(t, 0, n)

				doc, err := store.FindOne(ctx, "contract_delete", id)
				require.NoError(t, err)
				assert.Nil(t, doc)
			})

			assert.NoError(t, store.Ping(context.Background()))
		})
	}
}

func TestMemoryServiceIsolatesDocuments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryService()

	in := models.Document{"name": "A", "tags": []interface{}{"x"}}
	id, err := store.Insert(ctx, "students", in)
	require.NoError(t, err)
	in["name"] = "changed"
	assert.NotContains(t, in, models.IDField)

	out, err := store.FindOne(ctx, "students", id)
	require.NoError(t, err)
	out["tags"].([]interface{})[0] = "y"

	again, err := store.FindOne(ctx, "students", id)
	require.NoError(t, err)
	assert.Equal(t, "A", again["name"])
	assert.Equal(t, []interface{}{"x"}, again["tags"])
}

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(context.Background(), &config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryService{}, store)

	_, err = NewStore(context.Background(), &config.Config{StoreBackend: "sqlite"})
	assert.Error(t, err)
}

func TestDatabaseFromURI(t *testing.T) {
	name, err := DatabaseFromURI("mongodb://localhost:27017/test_database")
	require.NoError(t, err)
	assert.Equal(t, "test_database", name)

	name, err = DatabaseFromURI("mongodb://user:pw@db1:27017,db2:27017/school?replicaSet=rs0")
	require.NoError(t, err)
	assert.Equal(t, "school", name)

	name, err = DatabaseFromURI("mongodb://localhost:27017")
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, name)

	_, err = DatabaseFromURI("postgres://localhost")
	assert.Error(t, err)
}
