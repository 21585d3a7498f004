package etl

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BartekS5/activity-etl/internal/observability"
	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Pipeline runs one extraction cycle. Archive, Lock and Notifier are optional.
type Pipeline struct {
	Fetcher   *Fetcher
	Sink      Sink
	Archive   Archiver
	Lock      Locker
	Notifier  Notifier
	TableName string
	DryRun    bool
	RunID     string
	Now       func() time.Time
}

// Result summarises a run.
type Result struct {
	RunID      string
	Fetched    int
	RowsLoaded int64
	Archived   int64
	// Watermark is the value stored after the run.
	Watermark sql.NullTime
	// Committed is true when the watermark was advanced.
	Committed bool
}

// NewPipeline creates a pipeline with dry-run support.
func NewPipeline(fetcher *Fetcher, sink Sink, tableName string, dryRun bool) *Pipeline {
	return &Pipeline{
		Fetcher:   fetcher,
		Sink:      sink,
		TableName: tableName,
		DryRun:    dryRun,
		RunID:     uuid.NewString(),
		Now:       time.Now,
	}
}

// Run reads the watermark, extracts newer activities, replaces the table
// with them and advances the watermark to the run's start time. Any error
// aborts the run before the watermark is written.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.now()
	res, stage, err := p.run(ctx, started)
	took := p.now().Sub(started)
	if err != nil {
		observability.RecordRunFailed(string(stage), took)
		return res, err
	}
	observability.RecordRunSucceeded(p.now(), took)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, started time.Time) (*Result, Stage, error) {
	runStart := started.UTC().Truncate(time.Second)
	res := &Result{RunID: p.RunID}
	log := logger.WithFields(logrus.Fields{"run_id": p.RunID, "table": p.TableName})

	if p.Lock != nil {
		ok, err := p.Lock.Acquire(ctx)
		if err != nil {
			return res, StageExtract, err
		}
		if !ok {
			return res, StageExtract, ErrRunInProgress
		}
		defer func() {
			if err := p.Lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warnf("Failed to release run lock: %v", err)
			}
		}()
	}

	watermark, err := p.Sink.GetWatermark(ctx)
	if err != nil {
		return res, StageWatermark, &LoadError{Stage: StageWatermark, Table: p.TableName, Err: err}
	}
	res.Watermark = watermark
	if watermark.Valid {
		observability.RecordWatermark(watermark.Time)
		log.Infof("Starting run. Watermark: %s, DryRun: %v", watermark.Time.Format(time.RFC3339), p.DryRun)
	} else {
		log.Infof("Starting run with no previous watermark. DryRun: %v", p.DryRun)
	}

	batch, err := p.Fetcher.PullSince(ctx, watermark)
	if err != nil {
		log.Errorf("Extraction failed: %v", err)
		return res, StageExtract, err
	}
	res.Fetched = batch.Len()
	if batch.Len() == 0 {
		log.Info("No new activities since the last run. Nothing to load.")
		return res, "", nil
	}

	table, err := Clean(batch.Records, p.TableName)
	if err != nil {
		log.Errorf("Cleaning failed: %v", err)
		return res, StageTransform, err
	}

	if p.DryRun {
		log.Infof("[DRY RUN] Would load %d rows", len(table.Rows))
		return res, "", nil
	}

	rows, err := p.Sink.ReplaceTable(ctx, table)
	if err != nil {
		log.Errorf("Loading failed: %v", err)
		return res, StageLoad, &LoadError{Stage: StageLoad, Table: p.TableName, Err: err}
	}
	res.RowsLoaded = rows
	observability.RecordRowsLoaded(rows)
	log.Infof("success: %d rows added", rows)

	if p.Archive != nil {
		n, err := p.Archive.Archive(ctx, p.RunID, batch.Raw)
		if err != nil {
			log.Errorf("Archiving failed: %v", err)
			return res, StageArchive, &LoadError{Stage: StageArchive, Table: p.TableName, Err: err}
		}
		res.Archived = n
	}

	if watermark.Valid && runStart.Before(watermark.Time) {
		log.Warnf("Run start %s is before the stored watermark; keeping %s",
			runStart.Format(time.RFC3339), watermark.Time.Format(time.RFC3339))
		return res, "", nil
	}
	if err := p.Sink.SetWatermark(ctx, runStart); err != nil {
		return res, StageWatermark, &LoadError{Stage: StageWatermark, Table: p.TableName, Err: err}
	}
	res.Watermark = sql.NullTime{Time: runStart, Valid: true}
	res.Committed = true
	observability.RecordWatermark(runStart)

	if p.Notifier != nil {
		event := models.RunCompleted{
			RunID:      p.RunID,
			RowsLoaded: rows,
			Watermark:  runStart,
			FinishedAt: p.now().UTC(),
		}
		if err := p.Notifier.Publish(ctx, event); err != nil {
			log.Warnf("Failed to publish run event: %v", err)
		}
	}
	return res, "", nil
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// IsLoadError reports whether err came from the load, archive or watermark stage.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
