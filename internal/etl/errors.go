package etl

import (
	"errors"
	"fmt"

	"github.com/BartekS5/activity-etl/pkg/models"
)

// Stage identifies where in the run an error occurred.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
	StageArchive   Stage = "archive"
	StageWatermark Stage = "watermark"
)

var (
	// ErrMalformedField marks a field that is present but cannot be parsed.
	ErrMalformedField = errors.New("malformed field")
	// ErrMissingStartDate is returned when a feed record cannot be compared
	// with the watermark.
	ErrMissingStartDate = errors.New("activity has no start_date")
	// ErrRunInProgress is returned when another process holds the run lock.
	ErrRunInProgress = errors.New("another run is in progress")
)

// FetchError wraps a transport or authentication failure for one page.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CastError is returned when a cleaned cell cannot be cast to its column type.
type CastError struct {
	Row    int
	Column string
	Type   models.ColumnType
	Value  interface{}
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot cast %v (%T) to %s: %v",
		e.Row, e.Column, e.Value, e.Value, e.Type, e.Err)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// LoadError is returned when the sink or archive rejects the batch. A run
// that returns a LoadError never advances the watermark.
type LoadError struct {
	Stage Stage
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Stage, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
