package repository

import (
	"context"
	"fmt"
	"time"

	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Booking_attempts"
)

// AttemptRepository journals booking submissions for support and audit.
type AttemptRepository interface {
	Record(ctx context.Context, attempt *model.BookingAttempt) error
	FindByScope(ctx context.Context, scope string, limit int) ([]*model.BookingAttempt, error)
}

type Timeouts struct {
	Read  time.Duration
	Write time.Duration
}

type mongoAttemptRepository struct {
	timeouts   Timeouts
	collection *mongo.Collection
}

func NewMongoAttemptRepository(client *mongo.Client, dbName string, timeouts Timeouts) AttemptRepository {
	return &mongoAttemptRepository{
		timeouts:   timeouts,
		collection: client.Database(dbName).Collection(CollectionName),
	}
}

// withTimeout bounds ctx by timeout unless the caller's deadline is sooner.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAttemptRepository) Record(ctx context.Context, attempt *model.BookingAttempt) error {
	ctx, cancel := withTimeout(ctx, r.timeouts.Write)
	defer cancel()

	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.collection.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record booking attempt: %w", err)
	}
	return nil
}

func (r *mongoAttemptRepository) FindByScope(ctx context.Context, scope string, limit int) ([]*model.BookingAttempt, error) {
	ctx, cancel := withTimeout(ctx, r.timeouts.Read)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"scope": scope}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking attempts: %w", err)
	}
	defer cursor.Close(ctx)

	var attempts []*model.BookingAttempt
	if err = cursor.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("failed to decode booking attempts: %w", err)
	}
	return attempts, nil
}

// NoopAttemptRepository is used when no journal database is configured.
type NoopAttemptRepository struct{}

func (NoopAttemptRepository) Record(context.Context, *model.BookingAttempt) error { return nil }

func (NoopAttemptRepository) FindByScope(context.Context, string, int) ([]*model.BookingAttempt, error) {
	return nil, nil
}
