package models

import (
	"encoding/json"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names
const (
	StudentsCollection = "students"
	GroupsCollection   = "groups"
)

// Field names the service itself reads or writes
const (
	IDField      = "_id"
	GroupIDField = "group_id" // weak reference from a student to a group, no cascade on group delete
)

// Document is a schema-less record as stored in a collection.
type Document map[string]interface{}

// Filter matches documents whose fields equal the given values.
type Filter map[string]interface{}

// Update describes the fields to set and the fields to remove on one document.
type Update struct {
	Set   map[string]interface{}
	Unset []string
}

// ID returns the store-assigned identifier, if the document carries one.
func (d Document) ID() (primitive.ObjectID, bool) {
	id, ok := d[IDField].(primitive.ObjectID)
	return id, ok
}

// HasGroup reports whether the document's group_id is set to a truthy value.
// Missing, null, false, zero numbers, empty strings and empty arrays or
// subdocuments count as unassigned; any ObjectID counts as assigned.
func (d Document) HasGroup() bool {
	return truthy(d[GroupIDField])
}

func truthy(v interface{}) bool {
	switch v := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return false
	case primitive.ObjectID:
		return true
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// Public returns a shallow copy with identifiers rendered as hex strings,
// the shape returned to HTTP callers.
func (d Document) Public() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if id, ok := v.(primitive.ObjectID); ok && (k == IDField || k == GroupIDField) {
			out[k] = id.Hex()
			continue
		}
		out[k] = v
	}
	return out
}

// ReservedFields returns the fields present in d that only the service may
// write, in a stable order.
func (d Document) ReservedFields() []string {
	var fields []string
	for _, field := range []string{IDField, GroupIDField} {
		if _, ok := d[field]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}
