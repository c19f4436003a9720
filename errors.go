package minsketch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/minsketch/model"
)

var (
	// ErrUnresolvedKey is returned when a document key has no external id.
	ErrUnresolvedKey = errors.New("unresolved document key")

	// ErrNoResolver is returned by Run when no Resolver is supplied.
	ErrNoResolver = errors.New("resolver is required")

	// ErrInvalidLimit is returned by RunAll for a non-positive limit.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// UnresolvedKeyError reports the document key that could not be resolved.
type UnresolvedKeyError struct {
	Key model.DocumentKey
}

func (e *UnresolvedKeyError) Error() string {
	return fmt.Sprintf("unresolved document key %s", e.Key)
}

func (e *UnresolvedKeyError) Unwrap() error { return ErrUnresolvedKey }

// ShardError wraps a failure of a single RunAll job.
//
// The original underlying error can be accessed via errors.Unwrap.
type ShardError struct {
	Shard int
	Name  string
	cause error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("shard %d (%s): %v", e.Shard, e.Name, e.cause)
}

func (e *ShardError) Unwrap() error { return e.cause }
