package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
)

// HistoryRepo stores terminal session records in the session_histories
// collection. Records are insert-only.
type HistoryRepo struct{ col *mongo.Collection }

func NewHistoryRepo(c *Client) (*HistoryRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	col := db.Collection("session_histories")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
	})

	return &HistoryRepo{col: col}, nil
}

func (r *HistoryRepo) Insert(ctx context.Context, records ...*models.SessionHistory) error {
	docs := make([]interface{}, 0, len(records))
	now := time.Now().UTC()
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		docs = append(docs, rec)
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

func (r *HistoryRepo) RecentByUser(ctx context.Context, userID string, limit int64) ([]models.SessionHistory, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SessionHistory{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HistoryRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"user": userID})
}
