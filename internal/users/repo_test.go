package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parejaapp/pareja-backend/pkg/db/dbtest"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestRepositoryGetLoadsProfileWithTokens(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	user := &models.User{
		ID:          uuid.New(),
		Name:        "Ana",
		Email:       "ana@example.com",
		CountryCode: strPtr("+52"),
		Phone:       strPtr("5512345678"),
		TimeZone:    strPtr("America/Mexico_City"),
	}
	require.NoError(t, db.Create(user).Error)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.DeviceToken{ID: uuid.New(), UserID: user.ID, Token: "second", CreatedAt: base.Add(time.Minute)}).Error)
	require.NoError(t, db.Create(&models.DeviceToken{ID: uuid.New(), UserID: user.ID, Token: "first", CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.DeviceToken{ID: uuid.New(), UserID: uuid.New(), Token: "someone-else", CreatedAt: base}).Error)

	profile, err := repo.Get(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, "+525512345678", profile.Phone)
	assert.Equal(t, "America/Mexico_City", profile.TimeZone)
	assert.Equal(t, []string{"first", "second"}, profile.DeviceTokens)

	recipient := profile.Recipient()
	assert.Equal(t, user.ID, recipient.UserID)
	assert.Equal(t, profile.DeviceTokens, recipient.DeviceTokens)
}

func TestRepositoryGetWithoutPhoneOrZone(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)

	user := &models.User{ID: uuid.New(), Name: "Luis", Email: "luis@example.com", Phone: strPtr("5512345678")}
	require.NoError(t, db.Create(user).Error)

	profile, err := repo.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Phone, "phone without country code is not sms-eligible")
	assert.Empty(t, profile.TimeZone)
	assert.Empty(t, profile.DeviceTokens)
}

func TestRepositoryGetMissingUser(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFromModelNil(t *testing.T) {
	assert.Nil(t, FromModel(nil))
}
