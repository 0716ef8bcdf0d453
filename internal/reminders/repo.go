package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/pkg/db/models"
)

// Repository selects appointments whose reminder is due.
type Repository interface {
	ListDue(ctx context.Context, now time.Time) ([]models.Appointment, error)
	MarkNotified(ctx context.Context, id uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// ListDue returns unnotified appointments that have not started yet and
// whose start minute is at most notify_offset_minutes after the current
// minute. The window is evaluated against the stored start and offset so
// writers that bypass the model hooks are still reminded.
func (r *repositoryImpl) ListDue(ctx context.Context, now time.Time) ([]models.Appointment, error) {
	now = now.UTC()
	// floor(starts_at) - floor(now) <= offset  <=>  starts_at - offset < floor(now) + 1m
	cutoff := now.Truncate(time.Minute).Add(time.Minute)

	q := r.db.WithContext(ctx).
		Where("notified = ?", false).
		Where("starts_at > ?", now)
	if r.db.Dialector.Name() == "sqlite" {
		q = q.Where("CAST(strftime('%s', starts_at) AS INTEGER) - notify_offset_minutes * 60 < ?", cutoff.Unix())
	} else {
		q = q.Where("starts_at - make_interval(mins => notify_offset_minutes) < ?", cutoff)
	}

	var rows []models.Appointment
	err := q.Order("starts_at ASC, created_at ASC, id ASC").Find(&rows).Error
	return rows, err
}

// MarkNotified flips notified only if it is still false.
func (r *repositoryImpl) MarkNotified(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND notified = ?", id, false).
		UpdateColumn("notified", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
