package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BartekS5/activity-etl/internal/observability"
	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/models"
)

const (
	// PageSize is the number of activities requested per page.
	PageSize = 1
	// QuotaRequestInterval pauses the run before every page number that is
	// a multiple of it.
	QuotaRequestInterval = 75
	// QuotaPause is how long the run sleeps to stay within the API quota.
	QuotaPause = 15 * time.Minute
)

// Fetcher walks the activity feed newest-first until it reaches the watermark.
type Fetcher struct {
	Source ActivityLister
	// Sleep blocks for the quota pause. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewFetcher(src ActivityLister) *Fetcher {
	return &Fetcher{Source: src, Sleep: sleepContext}
}

// PullSince returns, in feed order, every activity whose start time is after
// the watermark. It stops at the first activity at or before the watermark
// or when the feed is exhausted. An invalid watermark admits every activity.
func (f *Fetcher) PullSince(ctx context.Context, watermark sql.NullTime) (*models.Batch, error) {
	batch := &models.Batch{}
	page := 1

	for {
		if page%QuotaRequestInterval == 0 {
			logger.Warnf("Hit request limit at page %d, sleeping for %s...", page, QuotaPause)
			observability.RecordQuotaPause()
			if err := f.sleep(ctx, QuotaPause); err != nil {
				return nil, err
			}
		}

		activities, err := f.Source.ListActivities(ctx, page, PageSize)
		observability.RecordPageRequested()
		if err != nil {
			return nil, &FetchError{Page: page, Err: err}
		}
		if len(activities) == 0 {
			logger.Debugf("Feed exhausted at page %d", page)
			break
		}

		raw := activities[0]
		start, err := feedStartTime(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if watermark.Valid && !start.After(watermark.Time) {
			logger.Debugf("Reached watermark %s at page %d", watermark.Time.Format(time.RFC3339), page)
			break
		}

		rec, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		batch.Add(rec, raw)
		page++
	}

	observability.RecordActivitiesFetched(batch.Len())
	return batch, nil
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep == nil {
		return sleepContext(ctx, d)
	}
	return f.Sleep(ctx, d)
}

func feedStartTime(raw models.RawActivity) (time.Time, error) {
	v, p := raw.Lookup(models.StartDateColumn)
	if p != models.Present {
		return time.Time{}, ErrMissingStartDate
	}
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: start_date is %T", ErrMalformedField, v)
	}
	return ParseStartDate(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
