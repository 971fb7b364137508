package models

import (
	"time"
)

// Player is one participant's denormalized snapshot inside a result.
// Keyed by (play_time, uuid, npln_user_id); grade/job fields are only known
// for the submitting player and stay nil for teammates.
type Player struct {
	ID string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`

	// Content hash (utils.PlayerHash).
	PlayerID string `gorm:"size:32;index;not null" json:"player_id"`

	ResultRowID string `gorm:"type:uuid;index" json:"-"`

	UUID       string    `gorm:"size:36;not null;uniqueIndex:uq_players_natural" json:"uuid"`
	PlayTime   time.Time `gorm:"not null;uniqueIndex:uq_players_natural" json:"play_time"`
	NplnUserID string    `gorm:"size:20;not null;uniqueIndex:uq_players_natural" json:"npln_user_id"`

	IsMyself bool   `json:"is_myself"`
	Name     string `gorm:"not null" json:"name"`
	Byname   string `json:"byname"`
	NameID   string `json:"name_id"`
	Species  string `gorm:"size:12" json:"species"`

	// Nameplate
	Nameplate int       `json:"nameplate"` // background id
	Badges    []*int    `gorm:"serializer:json;type:jsonb" json:"badges"`
	TextColor []float64 `gorm:"serializer:json;type:jsonb" json:"text_color"` // RGBA

	Uniform       int   `json:"uniform"`
	WeaponList    []int `gorm:"serializer:json;type:jsonb" json:"weapon_list"`
	SpecialID     *int  `json:"special_id"`
	SpecialCounts []int `gorm:"serializer:json;type:jsonb" json:"special_counts"` // per-wave usage of own special

	// Per-player stats
	BossKillCounts       []*int `gorm:"serializer:json;type:jsonb" json:"boss_kill_counts"` // nil entries for teammates
	BossKillCountsTotal  int    `json:"boss_kill_counts_total"`
	IkuraNum             int    `json:"ikura_num"`
	GoldenIkuraNum       int    `json:"golden_ikura_num"`
	GoldenIkuraAssistNum int    `json:"golden_ikura_assist_num"`
	HelpCount            int    `json:"help_count"`
	DeadCount            int    `json:"dead_count"`

	// Submitter-only fields
	GradeID    *int     `json:"grade_id"`
	GradePoint *int     `json:"grade_point"`
	JobScore   *int     `json:"job_score"`
	JobRate    *float64 `json:"job_rate"`
	JobBonus   *int     `json:"job_bonus"`
	KumaPoint  *int     `json:"kuma_point"`
	SmellMeter *int     `json:"smell_meter"`

	Timestamps
}
