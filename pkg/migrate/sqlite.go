package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SQLiteSchema mirrors the Postgres migrations for local runs and tests on
// sqlite. UUIDs are TEXT, booleans INTEGER, timestamps DATETIME.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  country_code TEXT,
  phone TEXT,
  time_zone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  token TEXT NOT NULL UNIQUE,
  device_info TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS pairings (
  id TEXT PRIMARY KEY,
  requester_id TEXT NOT NULL,
  recipient_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  additional_data TEXT,
  send_immediately INTEGER NOT NULL DEFAULT 0,
  scheduled_at DATETIME,
  sent_at DATETIME,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  location TEXT,
  starts_at DATETIME NOT NULL,
  notify_offset_minutes INTEGER NOT NULL DEFAULT 30 CHECK (notify_offset_minutes > 0),
  notified INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications (sent_at, scheduled_at);`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_pending ON appointments (notified, starts_at);`,
}

// ApplySQLite creates the dispatch schema on a sqlite connection.
func ApplySQLite(ctx context.Context, db *gorm.DB) error {
	for _, stmt := range SQLiteSchema {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
