package etl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoArchiver(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	fixed := func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }

	mt.Run("upserts by activity id", func(mt *mtest.T) {
		archiver := &MongoArchiver{Collection: mt.Coll, Now: fixed}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{
				bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: int64(3)}},
				bson.D{{Key: "index", Value: 1}, {Key: "_id", Value: int64(2)}},
			}},
		))

		n, err := archiver.Archive(context.Background(), "run-1", []models.RawActivity{
			activity(3, "2024-01-03T00:00:00Z"),
			activity(2, "2024-01-02T00:00:00Z"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "update", started.CommandName)
	})

	mt.Run("skips records without usable id", func(mt *mtest.T) {
		archiver := &MongoArchiver{Collection: mt.Coll, Now: fixed}

		n, err := archiver.Archive(context.Background(), "run-1", []models.RawActivity{
			{"name": "no id"},
			{"id": json.Number("abc")},
		})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Nil(t, mt.GetStartedEvent())
	})

	mt.Run("write error", func(mt *mtest.T) {
		archiver := &MongoArchiver{Collection: mt.Coll, Now: fixed}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		_, err := archiver.Archive(context.Background(), "run-1", []models.RawActivity{
			activity(3, "2024-01-03T00:00:00Z"),
		})
		var bwe mongo.BulkWriteException
		require.ErrorAs(t, err, &bwe)
		assert.Equal(t, 121, bwe.WriteErrors[0].Code)
	})
}
