package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/BartekS5/activity-etl/pkg/models"
)

// ActivityLister returns one page of the reverse-chronological activity feed.
type ActivityLister interface {
	ListActivities(ctx context.Context, page, perPage int) ([]models.RawActivity, error)
}

// Sink is the relational store that owns the activity table and the watermark.
type Sink interface {
	// GetWatermark returns an invalid NullTime when no run has completed yet.
	GetWatermark(ctx context.Context) (sql.NullTime, error)
	SetWatermark(ctx context.Context, ts time.Time) error
	// ReplaceTable drops and recreates the table with the given rows.
	ReplaceTable(ctx context.Context, table *models.Table) (int64, error)
}

// Archiver keeps the raw API payloads of every loaded activity.
type Archiver interface {
	Archive(ctx context.Context, runID string, raw []models.RawActivity) (int64, error)
}

// Locker guards against overlapping runs.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Notifier announces committed runs.
type Notifier interface {
	Publish(ctx context.Context, event models.RunCompleted) error
}
