package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/travel-journal/backend/internal/models"
)

// SummaryHistory records every summary generation attempt in MongoDB.
type SummaryHistory struct {
	col *mongo.Collection
}

func NewSummaryHistory(db *mongo.Database) *SummaryHistory {
	return &SummaryHistory{col: db.Collection("summary_history")}
}

// EnsureIndexes creates the lookup index on journal_id and created_at.
func (s *SummaryHistory) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "journal_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *SummaryHistory) Record(ctx context.Context, rec *models.SummaryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// ListByJournal returns the attempts for one entry, newest first.
func (s *SummaryHistory) ListByJournal(ctx context.Context, journalID string) ([]models.SummaryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"journal_id": journalID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	records := []models.SummaryRecord{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return records, nil
}
