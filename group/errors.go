package group

import (
	"errors"
	"fmt"

	"github.com/hupe1980/minsketch/model"
)

// ErrAnomalousMerge is wrapped by AnomalyError.
var ErrAnomalousMerge = errors.New("anomalous merge")

// Anomaly describes a union that did not grow a non-empty set.
type Anomaly struct {
	Key      model.DocumentKey
	Before   int // pending set size before the union
	Incoming int // size of the merged-in set
	After    int // pending set size after the union
}

// AnomalyError is returned under AnomalyFail.
type AnomalyError struct {
	Anomaly Anomaly
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("anomalous merge for %s: %d tokens merged into %d, result %d",
		e.Anomaly.Key, e.Anomaly.Incoming, e.Anomaly.Before, e.Anomaly.After)
}

func (e *AnomalyError) Unwrap() error { return ErrAnomalousMerge }
