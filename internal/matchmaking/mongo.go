package matchmaking

import (
	"context"
	"fmt"

	"github.com/avvvet/darts-services/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queueCollection = "x01_queue"

// MongoQueue stores entries in one collection keyed by player id.
type MongoQueue struct {
	coll *mongo.Collection
}

func NewMongoQueue(ctx context.Context, database *mongo.Database) (*MongoQueue, error) {
	if err := db.CreateIndexForCollection(ctx, database, queueCollection, "joined"); err != nil {
		return nil, err
	}
	return &MongoQueue{coll: database.Collection(queueCollection)}, nil
}

func (q *MongoQueue) Add(ctx context.Context, e Entry) error {
	_, err := q.coll.ReplaceOne(ctx, bson.M{"_id": e.PlayerID}, e, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to queue player %s: %w", e.PlayerID, err)
	}
	return nil
}

func (q *MongoQueue) List(ctx context.Context) ([]Entry, error) {
	cur, err := q.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "joined", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode queue: %w", err)
	}
	return entries, nil
}

func (q *MongoQueue) Remove(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	older := make(bson.A, 0, len(entries))
	for _, e := range entries {
		older = append(older, bson.M{"_id": e.PlayerID, "joined": bson.M{"$lte": e.Joined}})
	}
	_, err := q.coll.DeleteMany(ctx, bson.M{"$or": older})
	if err != nil {
		return fmt.Errorf("failed to remove players from queue: %w", err)
	}
	return nil
}
