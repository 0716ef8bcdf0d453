package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/pkg/db"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

// Profile is the delivery view of a user.
type Profile struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	TimeZone     string
	DeviceTokens []string
}

// Recipient converts the profile into a delivery address set.
func (p Profile) Recipient() delivery.Recipient {
	tokens := make([]string, len(p.DeviceTokens))
	copy(tokens, p.DeviceTokens)
	return delivery.Recipient{
		UserID:       p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		DeviceTokens: tokens,
		TimeZone:     p.TimeZone,
	}
}

// FromModel flattens a user with its preloaded device tokens.
func FromModel(u *models.User) *Profile {
	if u == nil {
		return nil
	}
	phone, _ := u.SMSNumber()
	tokens := make([]string, 0, len(u.DeviceTokens))
	for _, dt := range u.DeviceTokens {
		if dt.Token == "" {
			continue
		}
		tokens = append(tokens, dt.Token)
	}
	return &Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        phone,
		TimeZone:     u.Zone(),
		DeviceTokens: tokens,
	}
}

// Repository reads user profiles for delivery.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the user and device tokens. A missing user is a NOT_FOUND error.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("DeviceTokens", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		First(&user, "id = ?", id).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(&user), nil
}
