package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/pkg/enums"
)

// Pairing links two users. RequesterID sent the invitation.
type Pairing struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID uuid.UUID           `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status      enums.PairingStatus `gorm:"type:pairing_status;not null;default:'pending'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Pairing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the pairing has been accepted.
func (p Pairing) IsActive() bool {
	return p.Status == enums.PairingStatusAccepted
}

// PartnerOf returns the member that is not userID. It returns false when
// userID is not part of the pairing.
func (p Pairing) PartnerOf(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case p.RequesterID:
		return p.RecipientID, true
	case p.RecipientID:
		return p.RequesterID, true
	default:
		return uuid.Nil, false
	}
}
