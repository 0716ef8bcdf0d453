package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultNotifyOffsetMinutes = 30

// Appointment is a dated event owned by one user.
type Appointment struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index"`
	Title               string    `gorm:"type:text;not null"`
	Description         *string   `gorm:"type:text"`
	Location            *string   `gorm:"type:text"`
	StartsAt            time.Time `gorm:"column:starts_at;not null"`
	NotifyOffsetMinutes int       `gorm:"column:notify_offset_minutes;not null;default:30"`
	Notified            bool      `gorm:"column:notified;not null;default:false"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	if a.NotifyOffsetMinutes <= 0 {
		a.NotifyOffsetMinutes = DefaultNotifyOffsetMinutes
	}
	return nil
}

// RemindAt is the minute at which the reminder becomes due.
func (a Appointment) RemindAt() time.Time {
	offset := a.NotifyOffsetMinutes
	if offset <= 0 {
		offset = DefaultNotifyOffsetMinutes
	}
	return ReminderTime(a.StartsAt, offset)
}

// ReminderTime is the start truncated to the minute, minus the offset.
func ReminderTime(startsAt time.Time, offsetMinutes int) time.Time {
	return startsAt.UTC().Truncate(time.Minute).Add(-time.Duration(offsetMinutes) * time.Minute)
}
