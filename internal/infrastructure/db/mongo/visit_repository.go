package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

const visitsCollection = "visits"

// VisitRepository implements ports.VisitRepository.
type VisitRepository struct {
	store *Store
}

func NewVisitRepository(store *Store) *VisitRepository {
	return &VisitRepository{store: store}
}

type mongoVisit struct {
	Page      string    `bson:"page"`
	Timestamp time.Time `bson:"timestamp"`
	UserAgent string    `bson:"user_agent,omitempty"`
	IP        string    `bson:"ip,omitempty"`
}

// Insert appends a visit document.
func (r *VisitRepository) Insert(ctx context.Context, v *domain.Visit) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	coll, err := r.store.collection(ctx, visitsCollection)
	if err != nil {
		return err
	}

	_, err = coll.InsertOne(ctx, mongoVisit{
		Page:      v.Page,
		Timestamp: v.Timestamp.UTC(),
		UserAgent: v.UserAgent,
		IP:        v.IP,
	})
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}
