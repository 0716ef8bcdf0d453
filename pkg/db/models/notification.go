package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is a message addressed to one user and fanned out to every
// channel once it is due.
type Notification struct {
	ID              uuid.UUID                             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID                             `gorm:"type:uuid;not null;index"`
	Title           string                                `gorm:"type:text;not null"`
	Body            string                                `gorm:"type:text;not null"`
	AdditionalData  datatypes.JSONType[map[string]string] `gorm:"column:additional_data"`
	SendImmediately bool                                  `gorm:"column:send_immediately;not null;default:false"`
	ScheduledAt     *time.Time                            `gorm:"column:scheduled_at"`
	SentAt          *time.Time                            `gorm:"column:sent_at"`
	IsRead          bool                                  `gorm:"column:is_read;not null;default:false"`
	CreatedAt       time.Time                             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                             `gorm:"column:updated_at;autoUpdateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Data returns a copy of the additional data map, never nil.
func (n Notification) Data() map[string]string {
	src := n.AdditionalData.Data()
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (n Notification) IsSent() bool {
	return n.SentAt != nil
}
