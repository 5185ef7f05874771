package reminderRepo

import (
	"context"
	"fmt"

	"medminder/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	intakeTimesCollection = "medication_times"
	medicationsCollection = "medications"
	usersCollection       = "users"
	settingsCollection    = "notification_settings"
)

// MongoReminderRepo implements ReminderRepository using MongoDB.
type MongoReminderRepo struct {
	db    *mongo.Database
	times *mongo.Collection
}

// NewMongoReminderRepo creates a new instance of ReminderRepository using MongoDB.
func NewMongoReminderRepo(ctx context.Context, db *mongo.Database, logger *zap.Logger) ReminderRepository {
	repo := &MongoReminderRepo{db: db, times: db.Collection(intakeTimesCollection)}
	if err := repo.ensureIndexes(ctx); err != nil {
		logger.Warn("reminder repo: index setup failed", zap.Error(err))
	}
	return repo
}

type dueIntakeDoc struct {
	models.IntakeTime `bson:",inline"`
	Medication        *models.Medication           `bson:"medication,omitempty"`
	User              *models.User                 `bson:"user,omitempty"`
	Settings          []models.NotificationSetting `bson:"settings"`
}

// dueIntakesPipeline matches intake times by exact string equality and joins
// their medication, its owner and its settings. Missing relations are kept
// so the caller can decide what to do with them.
func dueIntakesPipeline(times []string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"time": bson.M{"$in": times}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         medicationsCollection,
			"localField":   "medicationId",
			"foreignField": "id",
			"as":           "medication",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$medication", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "medication.userId",
			"foreignField": "id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         settingsCollection,
			"localField":   "medicationId",
			"foreignField": "medicationId",
			"as":           "settings",
		}}},
	}
}

// FindDueIntakes runs the due-intake aggregation.
func (r *MongoReminderRepo) FindDueIntakes(ctx context.Context, times []string) ([]models.DueIntake, error) {
	if len(times) == 0 {
		return nil, nil
	}

	cursor, err := r.times.Aggregate(ctx, dueIntakesPipeline(times))
	if err != nil {
		return nil, fmt.Errorf("failed to query due intakes: %w", err)
	}
	defer cursor.Close(ctx)

	var due []models.DueIntake
	for cursor.Next(ctx) {
		var doc dueIntakeDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode due intake: %w", err)
		}
		due = append(due, models.DueIntake{
			IntakeTime: doc.IntakeTime,
			Medication: doc.Medication,
			User:       doc.User,
			Settings:   doc.Settings,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due intakes: %w", err)
	}
	return due, nil
}
