// Package domain holds the core data types of the birthday bot.
package domain

import "time"

// BirthdayRecord is the durable per-chat record of a birthdate, the preferred
// reminder hour, and the active flag. There is at most one record per ChatID.
type BirthdayRecord struct {
	ChatID     int64
	Birthdate  time.Time // calendar date, stored at UTC midnight
	RemindHour int       // 0..23, local to the configured time zone
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
