//go:build integration

package etl

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/BartekS5/activity-etl/pkg/database"
	"github.com/BartekS5/activity-etl/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestLiveSQLServerAndMongo runs one load against the servers named by
// SQL_CONNECTION_STRING and MONGO_CONNECTION_STRING.
func TestLiveSQLServerAndMongo(t *testing.T) {
	sqlConn := os.Getenv("SQL_CONNECTION_STRING")
	mongoConn := os.Getenv("MONGO_CONNECTION_STRING")
	if sqlConn == "" || mongoConn == "" {
		t.Skip("SQL_CONNECTION_STRING and MONGO_CONNECTION_STRING must be set")
	}
	ctx := context.Background()

	sqlDB, err := database.ConnectSQL(ctx, sqlConn)
	if err != nil {
		t.Fatalf("Failed to connect to SQL: %v", err)
	}
	defer sqlDB.Close()

	mongoClient, err := database.ConnectMongo(ctx, mongoConn)
	if err != nil {
		t.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer database.DisconnectMongo(mongoClient)

	cleanupLiveData(t, sqlDB, mongoClient)
	defer cleanupLiveData(t, sqlDB, mongoClient)

	if _, err := sqlDB.Exec(`CREATE TABLE [it_update_history] (updated_datetime DATETIME2 NOT NULL)`); err != nil {
		t.Fatalf("Failed to create history table: %v", err)
	}

	sink := NewSQLServerSink(sqlDB, "it_update_history")
	archive := &MongoArchiver{Collection: mongoClient.Database("strava_it").Collection("raw_activities"), Now: time.Now}

	feed := &fakeFeed{activities: []models.RawActivity{
		activity(3, "2024-01-03T00:00:00Z"),
		activity(2, "2024-01-02T00:00:00Z"),
	}}
	p := NewPipeline(newTestFetcher(feed), sink, "it_strava_activity", false)
	p.Archive = archive

	res, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Pipeline execution failed: %v", err)
	}
	if res.RowsLoaded != 2 {
		t.Errorf("Expected 2 rows loaded, got %d", res.RowsLoaded)
	}

	var count int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM [it_strava_activity]`).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows in SQL, got %d", count)
	}

	wm, err := sink.GetWatermark(ctx)
	if err != nil || !wm.Valid {
		t.Fatalf("Expected a watermark, got %v (err %v)", wm, err)
	}

	var doc bson.M
	err = archive.Collection.FindOne(ctx, bson.M{"_id": int64(3)}).Decode(&doc)
	if err != nil {
		t.Fatalf("Failed to find archived activity: %v", err)
	}
	if doc["run_id"] != p.RunID {
		t.Errorf("Expected run_id %s, got %v", p.RunID, doc["run_id"])
	}
}

func cleanupLiveData(t *testing.T, sqlDB *sql.DB, mongoClient *mongo.Client) {
	t.Helper()
	sqlDB.Exec(`DROP TABLE IF EXISTS [it_strava_activity]`)
	sqlDB.Exec(`DROP TABLE IF EXISTS [it_update_history]`)
	mongoClient.Database("strava_it").Collection("raw_activities").Drop(context.Background())
}
