// Package service implements the student and group operations on top of a
// db.Store.
//
// The group_id field on a student is a weak reference: a group is only
// checked to exist when a student is linked or transferred to it, and
// deleting a group leaves referencing students untouched.
package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"roster-server-go/db"
	"roster-server-go/models"
)

// DefaultGroupListLimit caps ListStudentsInGroup when no limit is configured.
const DefaultGroupListLimit int64 = 100

// Options tune the list operations.
type Options struct {
	// ListLimit caps ListStudents and ListGroups; db.NoLimit for none.
	ListLimit int64
	// GroupListLimit caps ListStudentsInGroup.
	GroupListLimit int64
}

// RecordService holds the store shared by every request.
type RecordService struct {
	store db.Store
	opts  Options
}

// NewRecordService creates a RecordService over store.
func NewRecordService(store db.Store, opts Options) *RecordService {
	if opts.GroupListLimit <= 0 {
		opts.GroupListLimit = DefaultGroupListLimit
	}
	return &RecordService{store: store, opts: opts}
}

// parseID converts a path identifier. A string that is not an ObjectID
// cannot name a stored document, so callers treat failure as not found.
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func (s *RecordService) create(ctx context.Context, collection string, doc models.Document) (string, error) {
	if reserved := doc.ReservedFields(); len(reserved) > 0 {
		return "", &InvalidInputError{Message: msgReservedFields + strings.Join(reserved, ", ")}
	}
	id, err := s.store.Insert(ctx, collection, doc)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// lookup returns (nil, nil) for unknown or malformed identifiers.
func (s *RecordService) lookup(ctx context.Context, collection, id string) (models.Document, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	return s.store.FindOne(ctx, collection, oid)
}

func (s *RecordService) get(ctx context.Context, collection, id, msg string) (models.Document, error) {
	doc, err := s.lookup(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound(msg)
	}
	return doc.Public(), nil
}

func (s *RecordService) remove(ctx context.Context, collection, id, msg string) error {
	oid, ok := parseID(id)
	if !ok {
		return notFound(msg)
	}
	n, err := s.store.DeleteOne(ctx, collection, oid)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(msg)
	}
	return nil
}

func (s *RecordService) list(ctx context.Context, collection string, filter models.Filter, limit int64) ([]models.Document, error) {
	docs, err := s.store.Find(ctx, collection, filter, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Public())
	}
	return out, nil
}

// CreateStudent stores doc and returns the new identifier as hex.
// A body carrying _id or group_id is rejected with InvalidInputError: the
// identifier is store-assigned and group_id is only written by
// AddStudentToGroup, TransferStudent and ImportStudents.
func (s *RecordService) CreateStudent(ctx context.Context, doc models.Document) (string, error) {
	return s.create(ctx, models.StudentsCollection, doc)
}

// CreateGroup stores doc and returns the new identifier as hex. Reserved
// fields are rejected as in CreateStudent.
func (s *RecordService) CreateGroup(ctx context.Context, doc models.Document) (string, error) {
	return s.create(ctx, models.GroupsCollection, doc)
}

func (s *RecordService) GetStudent(ctx context.Context, id string) (models.Document, error) {
	return s.get(ctx, models.StudentsCollection, id, MsgStudentNotFound)
}

func (s *RecordService) GetGroup(ctx context.Context, id string) (models.Document, error) {
	return s.get(ctx, models.GroupsCollection, id, MsgGroupNotFound)
}

func (s *RecordService) DeleteStudent(ctx context.Context, id string) error {
	return s.remove(ctx, models.StudentsCollection, id, MsgStudentNotFound)
}

// DeleteGroup does not touch students that reference the group.
func (s *RecordService) DeleteGroup(ctx context.Context, id string) error {
	return s.remove(ctx, models.GroupsCollection, id, MsgGroupNotFound)
}

func (s *RecordService) ListStudents(ctx context.Context) ([]models.Document, error) {
	return s.list(ctx, models.StudentsCollection, models.Filter{}, s.opts.ListLimit)
}

func (s *RecordService) ListGroups(ctx context.Context) ([]models.Document, error) {
	return s.list(ctx, models.GroupsCollection, models.Filter{}, s.opts.ListLimit)
}

// ListStudentsInGroup returns the students whose group_id is the given group.
// The group itself need not exist.
func (s *RecordService) ListStudentsInGroup(ctx context.Context, groupID string) ([]models.Document, error) {
	oid, ok := parseID(groupID)
	if !ok {
		return []models.Document{}, nil
	}
	return s.list(ctx, models.StudentsCollection, models.Filter{models.GroupIDField: oid}, s.opts.GroupListLimit)
}

// setGroup links a student to a group after checking both exist. The check
// and the update are separate store calls; a concurrent delete of the group
// in between leaves a dangling reference.
func (s *RecordService) setGroup(ctx context.Context, studentID, groupID, msg string) error {
	student, err := s.lookup(ctx, models.StudentsCollection, studentID)
	if err != nil {
		return err
	}
	group, err := s.lookup(ctx, models.GroupsCollection, groupID)
	if err != nil {
		return err
	}
	if student == nil || group == nil {
		return notFound(msg)
	}

	sid, _ := student.ID()
	gid, _ := group.ID()
	ok, err := s.store.UpdateOne(ctx, models.StudentsCollection, sid, models.Update{
		Set: map[string]interface{}{models.GroupIDField: gid},
	})
	if err != nil {
		return err
	}
	if !ok {
		return notFound(msg)
	}
	return nil
}

// AddStudentToGroup sets the student's group_id.
func (s *RecordService) AddStudentToGroup(ctx context.Context, studentID, groupID string) error {
	return s.setGroup(ctx, studentID, groupID, MsgStudentOrGroupNotFound)
}

// TransferStudent moves the student to another group. The student does not
// need to be in a group already.
func (s *RecordService) TransferStudent(ctx context.Context, studentID, newGroupID string) error {
	return s.setGroup(ctx, studentID, newGroupID, MsgStudentOrNewGroupAbsent)
}

// RemoveStudentFromGroup clears the student's group_id. It fails with
// NotFoundError when the student is missing or is not in a group.
func (s *RecordService) RemoveStudentFromGroup(ctx context.Context, studentID string) error {
	student, err := s.lookup(ctx, models.StudentsCollection, studentID)
	if err != nil {
		return err
	}
	if student == nil || !student.HasGroup() {
		return notFound(MsgStudentOrGroupNotFound)
	}

	sid, _ := student.ID()
	ok, err := s.store.UpdateOne(ctx, models.StudentsCollection, sid, models.Update{
		Unset: []string{models.GroupIDField},
	})
	if err != nil {
		return err
	}
	if !ok {
		return notFound(MsgStudentOrGroupNotFound)
	}
	return nil
}
