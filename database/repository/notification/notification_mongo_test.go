package notificationRepo

import (
	"context"
	"testing"
	"time"

	"medminder/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newTestRepo(mt *mtest.T, now time.Time) *MongoNotificationRepo {
	return &MongoNotificationRepo{
		notifications: mt.DB.Collection(notificationsCollection),
		logs:          mt.DB.Collection(logsCollection),
		now:           func() time.Time { return now },
	}
}

func TestRecordReminder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	mt.Run("writes notification then log", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo := newTestRepo(mt, now)

		n := &models.Notification{MedicationID: "med-1", UserID: "u-1", IntakeTimeID: "it-1", Message: "take it"}
		entry, err := repo.RecordReminder(context.Background(), n)
		require.NoError(mt, err)

		require.NotEmpty(mt, n.ID)
		require.Equal(mt, now, n.CreatedAt)
		require.Equal(mt, models.NotificationStatusSent, n.Status)
		require.Equal(mt, n.ID, entry.NotificationID)
		require.Equal(mt, models.NotificationStatusSent, entry.Status)
		require.Equal(mt, now, entry.Timestamp)
	})

	mt.Run("notification insert failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		repo := newTestRepo(mt, now)

		_, err := repo.RecordReminder(context.Background(), &models.Notification{MedicationID: "med-1"})
		require.ErrorContains(mt, err, "med-1")
	})

	mt.Run("log insert failure removes notification", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 50, Message: "operation exceeded time limit"}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)
		repo := newTestRepo(mt, now)

		n := &models.Notification{ID: "n-fixed", MedicationID: "med-1"}
		_, err := repo.RecordReminder(context.Background(), n)
		require.ErrorContains(mt, err, "n-fixed")
		require.ErrorContains(mt, err, "operation exceeded time limit")

		var commands []string
		for _, ev := range mt.GetAllStartedEvents() {
			commands = append(commands, ev.CommandName)
		}
		require.Equal(mt, []string{"insert", "insert", "delete"}, commands)

		deleted := mt.GetAllStartedEvents()[2].Command
		filter := deleted.Lookup("deletes", "0", "q", "id").StringValue()
		require.Equal(mt, "n-fixed", filter)
	})

	mt.Run("failed removal is reported", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 50, Message: "operation exceeded time limit"}),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "not authorized"}),
		)
		repo := newTestRepo(mt, now)

		_, err := repo.RecordReminder(context.Background(), &models.Notification{ID: "n-fixed", MedicationID: "med-1"})
		require.ErrorContains(mt, err, "operation exceeded time limit")
		require.ErrorContains(mt, err, "failed to remove notification n-fixed")
	})
}

func TestListByMedication(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	mt.Run("decodes notifications with logs", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + notificationsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "id", Value: "n-1"},
			{Key: "medicationId", Value: "med-1"},
			{Key: "status", Value: "sent"},
			{Key: "createdAt", Value: created},
			{Key: "logs", Value: bson.A{bson.D{
				{Key: "id", Value: "l-1"},
				{Key: "notificationId", Value: "n-1"},
				{Key: "status", Value: "sent"},
				{Key: "timestamp", Value: created},
			}}},
		}))
		repo := newTestRepo(mt, created)

		items, err := repo.ListByMedication(context.Background(), "med-1", 0)
		require.NoError(mt, err)
		require.Len(mt, items, 1)
		require.Equal(mt, "n-1", items[0].ID)
		require.True(mt, created.Equal(items[0].CreatedAt))
		require.Len(mt, items[0].Logs, 1)
		require.Equal(mt, "l-1", items[0].Logs[0].ID)
	})

	mt.Run("empty result", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + notificationsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		repo := newTestRepo(mt, created)

		items, err := repo.ListByMedication(context.Background(), "med-1", 10)
		require.NoError(mt, err)
		require.Empty(mt, items)
		require.NotNil(mt, items)
	})
}
