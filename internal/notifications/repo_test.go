package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/pkg/db/dbtest"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
)

var baseNow = time.Date(2025, 6, 1, 17, 35, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func seedNotification(t *testing.T, db *gorm.DB, n models.Notification) models.Notification {
	t.Helper()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.UserID == uuid.Nil {
		n.UserID = uuid.New()
	}
	if n.Title == "" {
		n.Title = "Hello"
	}
	if n.Body == "" {
		n.Body = "World"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = baseNow.Add(-3 * time.Hour)
	}
	require.NoError(t, db.Create(&n).Error)
	return n
}

func ids(rows []models.Notification) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestRepositoryListImmediate(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedNotification(t, db, models.Notification{SendImmediately: true, CreatedAt: baseNow.Add(-2 * time.Minute)})
	second := seedNotification(t, db, models.Notification{SendImmediately: true, CreatedAt: baseNow.Add(-time.Minute)})
	seedNotification(t, db, models.Notification{SendImmediately: true, SentAt: timePtr(baseNow.Add(-time.Hour))})
	seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-30 * time.Second))})

	rows, err := repo.ListImmediate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, ids(rows))
}

func TestRepositoryListImmediateIgnoresFutureSchedule(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	urgent := seedNotification(t, db, models.Notification{SendImmediately: true, ScheduledAt: timePtr(baseNow.Add(2 * time.Hour))})

	rows, err := repo.ListImmediate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{urgent.ID}, ids(rows))

	scheduled, err := repo.ListLate(ctx, baseNow)
	require.NoError(t, err)
	assert.Empty(t, scheduled, "send-immediately rows never join the scheduled classes")
}

func TestRepositoryListOnTimeHonoursWindow(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	inWindow := seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-30 * time.Second))})
	exactlyNow := seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow)})
	seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-time.Minute))})
	seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(time.Minute))})
	seedNotification(t, db, models.Notification{SendImmediately: true, ScheduledAt: timePtr(baseNow)})

	rows, err := repo.ListOnTime(ctx, baseNow, time.Minute)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{inWindow.ID, exactlyNow.ID}, ids(rows))
}

func TestRepositoryListLateHasNoLowerBound(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	veryLate := seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-48 * time.Hour))})
	recent := seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-30 * time.Second))})
	seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(time.Hour))})
	seedNotification(t, db, models.Notification{ScheduledAt: timePtr(baseNow.Add(-2 * time.Hour)), SentAt: timePtr(baseNow.Add(-time.Hour))})
	seedNotification(t, db, models.Notification{})

	rows, err := repo.ListLate(ctx, baseNow)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{veryLate.ID, recent.ID}, ids(rows))
}

func TestRepositoryMarkSentIsConditional(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	n := seedNotification(t, db, models.Notification{
		SendImmediately: true,
		AdditionalData:  datatypes.NewJSONType(map[string]string{"kind": "test"}),
	})

	ok, err := repo.MarkSent(ctx, n.ID, baseNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkSent(ctx, n.ID, baseNow.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "second stamp should not affect any row")

	var stored models.Notification
	require.NoError(t, db.First(&stored, "id = ?", n.ID).Error)
	require.NotNil(t, stored.SentAt)
	assert.True(t, stored.SentAt.Equal(baseNow))
	assert.Equal(t, "test", stored.Data()["kind"])

	rows, err := repo.ListImmediate(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
