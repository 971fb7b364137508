package models

import (
	"time"
)

// Wave is one wave outcome inside a result, keyed by
// (play_time, uuid, wave_id).
type Wave struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	// Content hash (utils.WaveHash).
	WaveHash string `gorm:"size:32;index;not null" json:"wave_hash"`

	ResultRowID string `gorm:"type:uuid;index" json:"-"`

	UUID     string    `gorm:"size:36;not null;uniqueIndex:uq_waves_natural" json:"uuid"`
	PlayTime time.Time `gorm:"not null;uniqueIndex:uq_waves_natural" json:"play_time"`
	WaveID   int       `gorm:"not null;uniqueIndex:uq_waves_natural" json:"wave_id"` // 0 = extra wave

	WaterLevel int  `json:"water_level"`
	EventType  int  `json:"event_type"` // 0 = plain water-levels wave
	QuotaNum   *int `json:"quota_num"`  // nil for the bonus (king salmonid) wave

	GoldenIkuraPopNum int  `json:"golden_ikura_pop_num"`
	GoldenIkuraNum    *int `json:"golden_ikura_num"` // nil when the delivery was intercepted

	IsClear bool `json:"is_clear"`

	Timestamps
}
