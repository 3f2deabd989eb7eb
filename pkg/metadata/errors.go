package metadata

import (
	"errors"
	"fmt"
)

// ErrUnsupportedType is returned when a property value's kind has no
// counterpart in the store's filter-language vocabulary.
var ErrUnsupportedType = errors.New("unsupported property type")

// NotFoundError is returned when a lookup expecting exactly one result
// matched nothing. It carries the entity kind and the lookup key.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// AmbiguousError is returned when a lookup expecting exactly one result
// matched several.
type AmbiguousError struct {
	Entity string
	Key    string
	Count  int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous %s lookup %s: %d matches", e.Entity, e.Key, e.Count)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguous reports whether err is an AmbiguousError.
func IsAmbiguous(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
