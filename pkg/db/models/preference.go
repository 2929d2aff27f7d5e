package models

import "time"

// Preference is a process-wide key/value setting (search tier, feature
// toggles). Not user-owned.
type Preference struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Preference) TableName() string { return "preferences" }

// SyncMeta records the last successful sync timestamp per remote collection.
type SyncMeta struct {
	Collection   string    `gorm:"column:collection;primaryKey"`
	LastSyncedAt time.Time `gorm:"column:last_synced_at;not null"`
}

func (SyncMeta) TableName() string { return "sync_meta" }
