package models

import (
	"time"

	"gorm.io/gorm"
)

// Result records a single normalized gameplay session outcome.
// The natural key is (play_time, uuid, schedule_id); re-submitting the same
// session updates the submitter's player row instead of creating a duplicate.
type Result struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	// Content hash (utils.ResultHash), stable across re-submissions.
	ResultID string `gorm:"size:32;index;not null" json:"result_id"`

	UUID     string    `gorm:"size:36;not null;uniqueIndex:uq_results_natural" json:"uuid"`
	PlayTime time.Time `gorm:"not null;uniqueIndex:uq_results_natural" json:"play_time"`

	ScheduleID string   `gorm:"size:32;not null;uniqueIndex:uq_results_natural" json:"schedule_id"`
	Schedule   Schedule `gorm:"foreignKey:ScheduleID" json:"schedule"`

	// Outcome
	IsClear        bool  `json:"is_clear"`
	FailureWave    *int  `json:"failure_wave"` // nil = cleared, -1 = connection drop
	BossID         *int  `json:"boss_id"`      // king salmonid that appeared, if any
	IsBossDefeated *bool `json:"is_boss_defeated"`

	// Aggregates, always recomputed server-side, never trusted from the client.
	IkuraNum             int     `json:"ikura_num"`
	GoldenIkuraNum       int     `json:"golden_ikura_num"`
	GoldenIkuraAssistNum int     `json:"golden_ikura_assist_num"`
	DangerRate           float64 `json:"danger_rate"`

	// Per-enemy appearance/defeat counts, fixed arity, index-aligned to the
	// canonical enemy id order.
	BossCounts     []int `gorm:"serializer:json;type:jsonb" json:"boss_counts"`
	BossKillCounts []int `gorm:"serializer:json;type:jsonb" json:"boss_kill_counts"`

	// Scale rewards (nil when no king salmonid appeared)
	Bronze *int `json:"bronze"`
	Silver *int `json:"silver"`
	Gold   *int `json:"gold"`

	Members      []string `gorm:"serializer:json;type:jsonb" json:"members"` // npln user ids, self first
	NightLess    bool     `json:"night_less"`                               // no night waves in the whole run
	ScenarioCode *string  `gorm:"size:16" json:"scenario_code"`

	Players []Player `gorm:"foreignKey:ResultRowID" json:"players"`
	Waves   []Wave   `gorm:"foreignKey:ResultRowID" json:"waves"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
