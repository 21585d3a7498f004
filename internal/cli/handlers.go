package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BartekS5/activity-etl/internal/config"
	"github.com/BartekS5/activity-etl/internal/etl"
	"github.com/BartekS5/activity-etl/internal/notify"
	"github.com/BartekS5/activity-etl/internal/observability"
	"github.com/BartekS5/activity-etl/internal/strava"
	"github.com/BartekS5/activity-etl/pkg/database"
	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/runlock"
)

// openSink is a variable so tests can run the commands without a database.
var openSink = func(ctx context.Context, cfg config.SinkConfig) (etl.Sink, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return etl.NewPostgresSink(pool, cfg.HistoryTable), pool.Close, nil
	default:
		db, err := database.ConnectSQL(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return etl.NewSQLServerSink(db, cfg.HistoryTable), func() { db.Close() }, nil
	}
}

func runSync(ctx context.Context, opts *RunOptions, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.Log.File, cfg.Log.Level); err != nil {
		return err
	}
	defer logger.Close()

	sink, closeSink, err := openSink(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer closeSink()

	httpClient := &http.Client{Timeout: cfg.Strava.Timeout()}
	tokens := strava.NewTokenProvider(ctx, cfg.Strava, httpClient)
	api := strava.NewClient(cfg.Strava.ActivitiesEndpoint, httpClient, tokens)

	pipeline := etl.NewPipeline(etl.NewFetcher(api), sink, cfg.Sink.Table, opts.DryRun)

	if cfg.Archive.URI != "" && !opts.DryRun {
		client, err := database.ConnectMongo(ctx, cfg.Archive.URI)
		if err != nil {
			return err
		}
		defer database.DisconnectMongo(client)
		pipeline.Archive = etl.NewMongoArchiver(client, cfg.Archive.Database, cfg.Archive.Collection)
	}

	if cfg.Lock.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.Lock.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		pipeline.Lock = runlock.NewRedisLock(client, cfg.Lock.Key, cfg.Lock.TTL())
	}

	if len(cfg.Notify.Brokers) > 0 && !opts.DryRun {
		notifier := notify.NewKafkaNotifier(cfg.Notify.Brokers, cfg.Notify.Topic)
		defer notifier.Close()
		pipeline.Notifier = notifier
	}

	res, runErr := pipeline.Run(ctx)

	if err := observability.Push(context.WithoutCancel(ctx), cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logger.Warnf("Metrics push failed: %v", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(out, "Run %s finished: %d fetched, %d rows loaded", res.RunID, res.Fetched, res.RowsLoaded)
	switch {
	case opts.DryRun:
		fmt.Fprint(out, " (dry run)")
	case res.Committed:
		fmt.Fprintf(out, ", watermark %s", res.Watermark.Time.Format(time.RFC3339))
	}
	fmt.Fprintln(out)
	return nil
}

func showWatermark(ctx context.Context, opts *RunOptions, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSink(); err != nil {
		return err
	}

	sink, closeSink, err := openSink(ctx, cfg.Sink)
	if err != nil {
		return err
	}
	defer closeSink()

	wm, err := sink.GetWatermark(ctx)
	if err != nil {
		return err
	}
	if !wm.Valid {
		fmt.Fprintln(out, "No watermark recorded; the next run loads the full feed.")
		return nil
	}
	fmt.Fprintln(out, wm.Time.UTC().Format(time.RFC3339))
	return nil
}
