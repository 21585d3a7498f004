package etl

import (
	"context"
	"time"

	"github.com/BartekS5/activity-etl/pkg/logger"
	"github.com/BartekS5/activity-etl/pkg/models"
	"github.com/BartekS5/activity-etl/pkg/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoArchiver upserts raw API payloads keyed by activity id, so the full
// history survives even though the activity table is replaced every run.
type MongoArchiver struct {
	Collection *mongo.Collection
	Now        func() time.Time
}

func NewMongoArchiver(client *mongo.Client, database, collection string) *MongoArchiver {
	return &MongoArchiver{
		Collection: client.Database(database).Collection(collection),
		Now:        time.Now,
	}
}

func (m *MongoArchiver) Archive(ctx context.Context, runID string, raw []models.RawActivity) (int64, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	fetchedAt := now().UTC()

	var writes []mongo.WriteModel
	for _, r := range raw {
		idVal, p := r.Lookup(models.SourceIDColumn)
		if p != models.Present {
			logger.Warnf("Skipping archive of activity without id")
			continue
		}
		id, err := utils.ConvertToInt64(idVal)
		if err != nil {
			logger.Warnf("Skipping archive of activity with id %v: %v", idVal, err)
			continue
		}

		filter := bson.M{"_id": id}
		update := bson.M{"$set": bson.M{
			"raw":        map[string]interface{}(r),
			"fetched_at": fetchedAt,
			"run_id":     runID,
		}}
		model := mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true)
		writes = append(writes, model)
	}

	if len(writes) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	res, err := m.Collection.BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	logger.Infof("Mongo archive: Match %d, Mod %d, Upsert %d", res.MatchedCount, res.ModifiedCount, res.UpsertedCount)
	return res.MatchedCount + res.UpsertedCount, nil
}
