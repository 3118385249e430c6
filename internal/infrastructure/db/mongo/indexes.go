package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the unique indexes the repositories rely on. The
// tool_name index is what keeps concurrent first-time upserts to a single
// counter document.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		toolUsagesCollection: {
			{Keys: bson.D{{Key: "tool_name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "count", Value: -1}}},
		},
		visitsCollection: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
