package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories"
)

// QuestionSetRepo stores per-user question banks in the questionsets
// collection, one document per user.
type QuestionSetRepo struct{ col *mongo.Collection }

func NewQuestionSetRepo(c *Client) (*QuestionSetRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	col := db.Collection("questionsets")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &QuestionSetRepo{col: col}, nil
}

func (r *QuestionSetRepo) Get(ctx context.Context, userID string) (*models.QuestionSet, error) {
	var qs models.QuestionSet
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&qs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

func (r *QuestionSetRepo) Upsert(ctx context.Context, userID string, questions []models.SessionQuestion, resumeVersion string) (*models.QuestionSet, error) {
	set := bson.M{
		"questions":  questions,
		"updated_at": time.Now().UTC(),
	}
	if resumeVersion != "" {
		set["source_resume_version"] = resumeVersion
	}

	var qs models.QuestionSet
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&qs)
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

func (r *QuestionSetRepo) AppendQuestions(ctx context.Context, userID string, questions []models.SessionQuestion) (*models.QuestionSet, error) {
	var qs models.QuestionSet
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$push": bson.M{"questions": bson.M{"$each": questions}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&qs)
	if err != nil {
		return nil, err
	}
	return &qs, nil
}

// MarkUsed flips the used flag on the first question matching the prompt
// text. Callers treat failures as log-and-continue.
func (r *QuestionSetRepo) MarkUsed(ctx context.Context, userID, questionText string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "questions.question": questionText},
		bson.M{"$set": bson.M{"questions.$.used": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
