package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the read-side view of an account used for delivery.
type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string        `gorm:"column:name;not null"`
	Email        string        `gorm:"type:text;not null;uniqueIndex"`
	CountryCode  *string       `gorm:"column:country_code"`
	Phone        *string       `gorm:"column:phone"`
	TimeZone     *string       `gorm:"column:time_zone"`
	DeviceTokens []DeviceToken `gorm:"foreignKey:UserID"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SMSNumber joins country code and phone in E.164 form, adding the leading
// plus when the stored code lacks it. It returns false unless both are
// present.
func (u User) SMSNumber() (string, bool) {
	if u.CountryCode == nil || u.Phone == nil {
		return "", false
	}
	cc := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(*u.CountryCode), " ", ""), "+")
	phone := strings.TrimSpace(*u.Phone)
	if cc == "" || phone == "" {
		return "", false
	}
	return "+" + cc + phone, true
}

// Zone returns the configured time zone identifier or an empty string.
func (u User) Zone() string {
	if u.TimeZone == nil {
		return ""
	}
	return strings.TrimSpace(*u.TimeZone)
}
