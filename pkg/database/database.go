// Package database opens and verifies connections to the stores the job uses.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const pingTimeout = 5 * time.Second

func ConnectSQL(ctx context.Context, connString string) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("error opening SQL database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to SQL database (ping failed): %w", err)
	}

	logger.Info("Successfully connected to MS SQL Server.")
	return db, nil
}

func ConnectPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("error creating Postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to Postgres (ping failed): %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL.")
	return pool, nil
}

func ConnectMongo(ctx context.Context, connString string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		DisconnectMongo(client)
		return nil, fmt.Errorf("error connecting to MongoDB (ping failed): %w", err)
	}

	logger.Info("Successfully connected to MongoDB.")
	return client, nil
}

// DisconnectMongo closes the client, logging rather than returning failures.
func DisconnectMongo(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warnf("MongoDB disconnect failed: %v", err)
	}
}

// ConnectRedis accepts redis:// and rediss:// URLs.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis (ping failed): %w", err)
	}

	logger.Info("Successfully connected to Redis.")
	return client, nil
}
