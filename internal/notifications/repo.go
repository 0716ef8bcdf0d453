package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/pkg/db/models"
)

// Repository selects undelivered notifications and stamps them delivered.
type Repository interface {
	ListImmediate(ctx context.Context) ([]models.Notification, error)
	ListOnTime(ctx context.Context, now time.Time, window time.Duration) ([]models.Notification, error)
	ListLate(ctx context.Context, now time.Time) ([]models.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) unsent(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("sent_at IS NULL")
}

func (r *repositoryImpl) ListImmediate(ctx context.Context) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.unsent(ctx).
		Where("send_immediately = ?", true).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListOnTime returns scheduled notifications due within the catch-up window.
func (r *repositoryImpl) ListOnTime(ctx context.Context, now time.Time, window time.Duration) ([]models.Notification, error) {
	now = now.UTC()
	var rows []models.Notification
	err := r.unsent(ctx).
		Where("send_immediately = ?", false).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ? AND scheduled_at > ?", now, now.Add(-window)).
		Order("scheduled_at ASC, created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// ListLate returns every due scheduled notification, however late.
func (r *repositoryImpl) ListLate(ctx context.Context, now time.Time) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.unsent(ctx).
		Where("send_immediately = ?", false).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now.UTC()).
		Order("scheduled_at ASC, created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// MarkSent sets sent_at only if it is still NULL. It returns false when
// another writer stamped the row first.
func (r *repositoryImpl) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND sent_at IS NULL", id).
		UpdateColumn("sent_at", at.UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
