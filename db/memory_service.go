package db

import (
	"context"
	"sync"

	"github.com/mohae/deepcopy"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/models"
)

// MemoryService keeps collections in process memory. Documents are copied on
// the way in and out, so callers never share maps with the store.
type MemoryService struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	order []primitive.ObjectID
	docs  map[primitive.ObjectID]models.Document
}

// NewMemoryService returns an empty in-memory store.
func NewMemoryService() *MemoryService {
	return &MemoryService{collections: map[string]*memoryCollection{}}
}

func copyDocument(doc models.Document) models.Document {
	return deepcopy.Copy(doc).(models.Document)
}

func (s *MemoryService) collection(name string) *memoryCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memoryCollection{docs: map[primitive.ObjectID]models.Document{}}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryService) Insert(_ context.Context, collection string, doc models.Document) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := copyDocument(doc)
	if stored == nil {
		stored = models.Document{}
	}
	stored[models.IDField] = id

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (s *MemoryService) FindOne(_ context.Context, collection string, id primitive.ObjectID) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return copyDocument(doc), nil
}

func (s *MemoryService) Find(_ context.Context, collection string, filter models.Filter, limit int64) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := []models.Document{}
	c, ok := s.collections[collection]
	if !ok {
		return docs, nil
	}
	for _, id := range c.order {
		if limit > NoLimit && int64(len(docs)) >= limit {
			break
		}
		if doc := c.docs[id]; matches(doc, filter) {
			docs = append(docs, copyDocument(doc))
		}
	}
	return docs, nil
}

func (s *MemoryService) UpdateOne(_ context.Context, collection string, id primitive.ObjectID, update models.Update) (bool, error) {
	if isEmptyUpdate(update) {
		return false, errEmptyUpdate(collection, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return false, nil
	}
	doc, ok := c.docs[id]
	if !ok {
		return false, nil
	}
	applyUpdate(doc, models.Update{
		Set:   deepcopy.Copy(update.Set).(map[string]interface{}),
		Unset: update.Unset,
	})
	return true, nil
}

func (s *MemoryService) DeleteOne(_ context.Context, collection string, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	if _, ok = c.docs[id]; !ok {
		return 0, nil
	}
	delete(c.docs, id)
	for i, other := range c.order {
		if other == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *MemoryService) Ping(context.Context) error { return nil }

func (s *MemoryService) Close(context.Context) error { return nil }
