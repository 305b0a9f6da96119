package model

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that distinguishes an omitted key from an
// explicit null. Set is true whenever the key was present in the payload;
// Valid is false when that value was null.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// NullableOf returns a set, non-null field holding v.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null returns a set field holding an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Ptr returns the value as a pointer, or nil when null or unset.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
