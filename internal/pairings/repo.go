package pairings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/pkg/db"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/enums"
)

// Repository resolves the accepted pairing a user belongs to.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ActiveFor returns the accepted pairing containing userID on either side,
// or nil when there is none. If several exist the most recently updated wins.
func (r *Repository) ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Pairing, error) {
	var pairing models.Pairing
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PairingStatusAccepted).
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Order("updated_at DESC, id ASC").
		First(&pairing).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &pairing, nil
}

// PartnerOf returns the partner of userID in their active pairing.
func (r *Repository) PartnerOf(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	pairing, err := r.ActiveFor(ctx, userID)
	if err != nil || pairing == nil {
		return uuid.Nil, false, err
	}
	partnerID, ok := pairing.PartnerOf(userID)
	return partnerID, ok, nil
}
