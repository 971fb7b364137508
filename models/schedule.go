package models

import (
	"time"
)

// Schedule is a time-boxed (or untimed, for private modes) game
// configuration. Its primary key is the content hash of the semantic fields,
// so identical schedules collapse to one row no matter how many results
// reference them.
type Schedule struct {
	ID string `gorm:"primaryKey;size:32" json:"id"` // content hash (utils.ScheduleHash)

	Mode    string `gorm:"size:24;not null;index" json:"mode"`
	Rule    string `gorm:"size:24;not null;index" json:"rule"`
	StageID int    `gorm:"not null" json:"stage_id"`

	// Supplied weapons, draw order preserved (order is significant for the hash).
	WeaponList  []int `gorm:"serializer:json;type:jsonb" json:"weapon_list"`
	RareWeapons []int `gorm:"serializer:json;type:jsonb" json:"rare_weapons"`

	BossID *int `json:"boss_id"` // king salmonid for the rotation, nil if unannounced

	// Both nil for private modes; such schedules have no window at all.
	StartTime *time.Time `gorm:"index" json:"start_time"`
	EndTime   *time.Time `gorm:"index" json:"end_time"`

	Timestamps
}
