package model

import "time"

// Entry is one origin-scoped key/value pair of persisted state.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Origin    string `gorm:"size:191;uniqueIndex:idx_entry_origin_key"`
	Key       string `gorm:"size:191;uniqueIndex:idx_entry_origin_key"`
	Value     string
	UpdatedAt time.Time
}
