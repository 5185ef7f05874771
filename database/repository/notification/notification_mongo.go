package notificationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medminder/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	notificationsCollection = "notifications"
	logsCollection          = "notification_logs"
)

// MongoNotificationRepo implements NotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	notifications *mongo.Collection
	logs          *mongo.Collection
	now           func() time.Time
}

// NewMongoNotificationRepo creates a new instance of NotificationRepository using MongoDB.
func NewMongoNotificationRepo(ctx context.Context, db *mongo.Database, logger *zap.Logger) NotificationRepository {
	repo := &MongoNotificationRepo{
		notifications: db.Collection(notificationsCollection),
		logs:          db.Collection(logsCollection),
		now:           time.Now,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		logger.Warn("notification repo: index setup failed", zap.Error(err))
	}
	return repo
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoNotificationRepo) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.notifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "medicationId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	if _, err := r.logs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "notificationId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create notification log indexes: %w", err)
	}
	return nil
}

// RecordReminder writes the notification, then its log entry. No transaction
// spans the two inserts, so a failed log insert removes the notification again.
func (r *MongoNotificationRepo) RecordReminder(ctx context.Context, n *models.Notification) (*models.NotificationLog, error) {
	now := r.now()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Status == "" {
		n.Status = models.NotificationStatusSent
	}

	if _, err := r.notifications.InsertOne(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification for medication %s: %w", n.MedicationID, err)
	}

	entry := &models.NotificationLog{
		ID:             uuid.NewString(),
		NotificationID: n.ID,
		Status:         n.Status,
		Timestamp:      now,
	}
	if _, err := r.logs.InsertOne(ctx, entry); err != nil {
		err = fmt.Errorf("failed to create notification log for %s: %w", n.ID, err)
		if _, derr := r.notifications.DeleteOne(ctx, bson.M{"id": n.ID}); derr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove notification %s: %w", n.ID, derr))
		}
		return nil, err
	}
	return entry, nil
}

// ListByMedication returns recent notifications joined with their logs.
func (r *MongoNotificationRepo) ListByMedication(ctx context.Context, medicationID string, limit int64) ([]models.NotificationWithLogs, error) {
	if limit <= 0 {
		limit = 50
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"medicationId": medicationID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         logsCollection,
			"localField":   "id",
			"foreignField": "notificationId",
			"as":           "logs",
		}}},
	}

	cursor, err := r.notifications.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for medication %s: %w", medicationID, err)
	}
	defer cursor.Close(ctx)

	out := []models.NotificationWithLogs{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, nil
}
