package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

const (
	toolUsagesCollection = "tool_usages"

	// Two concurrent first-time upserts for the same tool can both miss and
	// race on the unique index; the loser retries as a plain increment.
	maxUpsertAttempts = 3
)

// ToolUsageRepository implements ports.ToolUsageRepository with one counter
// document per tool name.
type ToolUsageRepository struct {
	store *Store
}

func NewToolUsageRepository(store *Store) *ToolUsageRepository {
	return &ToolUsageRepository{store: store}
}

type mongoToolUsage struct {
	ToolName  string    `bson:"tool_name"`
	Count     int64     `bson:"count"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m mongoToolUsage) toDomain() *domain.ToolUsage {
	return &domain.ToolUsage{
		ToolName:  m.ToolName,
		Count:     m.Count,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// Increment performs a single findOneAndUpdate with $inc and upsert, so the
// read-modify-write happens inside MongoDB.
func (r *ToolUsageRepository) Increment(ctx context.Context, toolName string) (*domain.ToolUsage, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	coll, err := r.store.collection(ctx, toolUsagesCollection)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"tool_name": toolName}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc mongoToolUsage
	for attempt := 1; ; attempt++ {
		err = coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err == nil {
			return doc.toDomain(), nil
		}
		if !mongo.IsDuplicateKeyError(err) || attempt >= maxUpsertAttempts {
			return nil, fmt.Errorf("increment tool usage: %w", err)
		}
	}
}

func (r *ToolUsageRepository) FindByName(ctx context.Context, toolName string) (*domain.ToolUsage, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	coll, err := r.store.collection(ctx, toolUsagesCollection)
	if err != nil {
		return nil, err
	}

	var doc mongoToolUsage
	if err := coll.FindOne(ctx, bson.M{"tool_name": toolName}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrToolUsageNotFound
		}
		return nil, fmt.Errorf("find tool usage: %w", err)
	}
	return doc.toDomain(), nil
}

// ListByCount returns every counter, highest count first.
func (r *ToolUsageRepository) ListByCount(ctx context.Context) ([]*domain.ToolUsage, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	coll, err := r.store.collection(ctx, toolUsagesCollection)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "count", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list tool usages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoToolUsage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tool usages: %w", err)
	}

	out := make([]*domain.ToolUsage, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
