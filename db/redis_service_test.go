package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/models"
)

func TestRedisKeys(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("65f1c0ffee0000000000abcd")
	require.NoError(t, err)

	assert.Equal(t, "students", getCollectionKey(models.StudentsCollection))
	assert.Equal(t, "students:65f1c0ffee0000000000abcd", getDocumentKey(models.StudentsCollection, id))
}

func TestRedisDocumentKeepsObjectIDs(t *testing.T) {
	id := primitive.NewObjectID()
	group := primitive.NewObjectID()

	data, err := encodeDocument(models.Document{
		models.IDField:      id,
		models.GroupIDField: group,
		"name":              "A",
		"address":           map[string]interface{}{"city": "Riga"},
	})
	require.NoError(t, err)
	assert.Contains(t, data, `"$oid"`)

	doc, err := decodeDocument(data)
	require.NoError(t, err)
	assert.Equal(t, id, doc[models.IDField])
	assert.Equal(t, group, doc[models.GroupIDField])
	assert.Equal(t, "A", doc["name"])
	assert.True(t, matches(doc, models.Filter{models.GroupIDField: group}))

	_, err = decodeDocument("{not json")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	group := primitive.NewObjectID()
	doc := models.Document{"name": "A", models.GroupIDField: group}

	assert.True(t, matches(doc, models.Filter{}))
	assert.True(t, matches(doc, models.Filter{"name": "A", models.GroupIDField: group}))
	assert.False(t, matches(doc, models.Filter{"name": "B"}))
	assert.False(t, matches(doc, models.Filter{models.GroupIDField: group.Hex()}))
	assert.False(t, matches(doc, models.Filter{"missing": nil}))
}
