package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"coop-results-system/dto"
	"coop-results-system/models"
	"coop-results-system/utils"
)

// newTestDB opens an in-memory database with the same tables and natural-key
// unique indexes the postgres schema carries. The DDL is spelled out by hand
// because the model tags use postgres column types.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE schedules (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			rule TEXT NOT NULL,
			stage_id INTEGER NOT NULL,
			weapon_list TEXT,
			rare_weapons TEXT,
			boss_id INTEGER,
			start_time DATETIME,
			end_time DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE results (
			id TEXT PRIMARY KEY,
			result_id TEXT NOT NULL,
			uuid TEXT NOT NULL,
			play_time DATETIME NOT NULL,
			schedule_id TEXT NOT NULL,
			is_clear BOOLEAN,
			failure_wave INTEGER,
			boss_id INTEGER,
			is_boss_defeated BOOLEAN,
			ikura_num INTEGER,
			golden_ikura_num INTEGER,
			golden_ikura_assist_num INTEGER,
			danger_rate REAL,
			boss_counts TEXT,
			boss_kill_counts TEXT,
			bronze INTEGER,
			silver INTEGER,
			gold INTEGER,
			members TEXT,
			night_less BOOLEAN,
			scenario_code TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE UNIQUE INDEX uq_results_natural ON results (uuid, play_time, schedule_id)`,
		`CREATE TABLE players (
			id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
			player_id TEXT NOT NULL,
			result_row_id TEXT,
			uuid TEXT NOT NULL,
			play_time DATETIME NOT NULL,
			npln_user_id TEXT NOT NULL,
			is_myself BOOLEAN,
			name TEXT NOT NULL,
			byname TEXT,
			name_id TEXT,
			species TEXT,
			nameplate INTEGER,
			badges TEXT,
			text_color TEXT,
			uniform INTEGER,
			weapon_list TEXT,
			special_id INTEGER,
			special_counts TEXT,
			boss_kill_counts TEXT,
			boss_kill_counts_total INTEGER,
			ikura_num INTEGER,
			golden_ikura_num INTEGER,
			golden_ikura_assist_num INTEGER,
			help_count INTEGER,
			dead_count INTEGER,
			grade_id INTEGER,
			grade_point INTEGER,
			job_score INTEGER,
			job_rate REAL,
			job_bonus INTEGER,
			kuma_point INTEGER,
			smell_meter INTEGER,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE UNIQUE INDEX uq_players_natural ON players (uuid, play_time, npln_user_id)`,
		`CREATE TABLE waves (
			id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
			wave_hash TEXT NOT NULL,
			result_row_id TEXT,
			uuid TEXT NOT NULL,
			play_time DATETIME NOT NULL,
			wave_id INTEGER NOT NULL,
			water_level INTEGER,
			event_type INTEGER,
			quota_num INTEGER,
			golden_ikura_pop_num INTEGER,
			golden_ikura_num INTEGER,
			is_clear BOOLEAN,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE UNIQUE INDEX uq_waves_natural ON waves (uuid, play_time, wave_id)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestResultService(t *testing.T) *ResultService {
	t.Helper()
	db := newTestDB(t)
	return NewResultService(db, NewScheduleService(db), NewResourceService())
}

const (
	sessionUUID = "54A47507-C5AC-4D76-9A78-73EC241CDFEF"
	selfUserID  = "a7grz65rxkvhfsbwmxmm"
	mateUserID  = "q5rmxvrnf2h2mxmmfsbw"
)

// sessionResult builds the normalized form of one private session the way
// the wire adapters do, with a fresh row id per submission.
func sessionResult(gradePoint int, mateByname string) *dto.NormalizedResult {
	playTime := time.Date(2023, 9, 6, 15, 13, 58, 0, time.UTC)
	rowID := uuid.NewString()

	quota := 25
	golden := 30
	return &dto.NormalizedResult{
		Schedule: models.Schedule{
			Mode:       models.ModePrivateCustom,
			Rule:       models.RuleRegular,
			StageID:    106,
			WeaponList: []int{310, 310, 310, 310},
		},
		Result: models.Result{
			ID:       rowID,
			ResultID: utils.ResultHash(sessionUUID, playTime),
			UUID:     sessionUUID,
			PlayTime: playTime,

			IsClear:    true,
			IkuraNum:   2000,
			DangerRate: 1.88,
			Members:    []string{selfUserID, mateUserID},
			NightLess:  true,

			Players: []models.Player{
				{
					PlayerID:    utils.PlayerHash(sessionUUID, playTime, selfUserID),
					ResultRowID: rowID,
					UUID:        sessionUUID,
					PlayTime:    playTime,
					NplnUserID:  selfUserID,
					IsMyself:    true,
					Name:        "fixture",
					GradePoint:  &gradePoint,
					IkuraNum:    900,
				},
				{
					PlayerID:    utils.PlayerHash(sessionUUID, playTime, mateUserID),
					ResultRowID: rowID,
					UUID:        sessionUUID,
					PlayTime:    playTime,
					NplnUserID:  mateUserID,
					Name:        "teammate",
					Byname:      mateByname,
					IkuraNum:    1100,
				},
			},
			Waves: []models.Wave{
				{
					WaveHash:          utils.WaveHash(sessionUUID, playTime, 1),
					ResultRowID:       rowID,
					UUID:              sessionUUID,
					PlayTime:          playTime,
					WaveID:            1,
					QuotaNum:          &quota,
					GoldenIkuraPopNum: 50,
					GoldenIkuraNum:    &golden,
					IsClear:           true,
				},
			},
		},
	}
}

func TestSaveFirstSubmission(t *testing.T) {
	s := newTestResultService(t)

	saved, err := s.save(sessionResult(100, "Fishy Worker"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ScheduleID)

	var results, players, waves, schedules int64
	s.DB.Model(&models.Result{}).Count(&results)
	s.DB.Model(&models.Player{}).Count(&players)
	s.DB.Model(&models.Wave{}).Count(&waves)
	s.DB.Model(&models.Schedule{}).Count(&schedules)
	assert.Equal(t, int64(1), results)
	assert.Equal(t, int64(2), players)
	assert.Equal(t, int64(1), waves)
	assert.Equal(t, int64(1), schedules)
}

func TestSaveResubmission(t *testing.T) {
	s := newTestResultService(t)

	first, err := s.save(sessionResult(100, "Fishy Worker"))
	require.NoError(t, err)

	// A second client submits the same session with fresher self stats and
	// a stale view of the teammate.
	second, err := s.save(sessionResult(999, "Renamed Worker"))
	require.NoError(t, err)

	t.Run("result row is reused, not duplicated", func(t *testing.T) {
		assert.Equal(t, first.ID, second.ID)
		var results int64
		s.DB.Model(&models.Result{}).Count(&results)
		assert.Equal(t, int64(1), results)
	})

	t.Run("no duplicate players or waves", func(t *testing.T) {
		var players, waves int64
		s.DB.Model(&models.Player{}).Count(&players)
		s.DB.Model(&models.Wave{}).Count(&waves)
		assert.Equal(t, int64(2), players)
		assert.Equal(t, int64(1), waves)
	})

	t.Run("only the submitter's row is refreshed", func(t *testing.T) {
		var self, mate models.Player
		require.NoError(t, s.DB.Where("npln_user_id = ?", selfUserID).First(&self).Error)
		require.NoError(t, s.DB.Where("npln_user_id = ?", mateUserID).First(&mate).Error)
		require.NotNil(t, self.GradePoint)
		assert.Equal(t, 999, *self.GradePoint)
		assert.Equal(t, "Fishy Worker", mate.Byname)
	})
}

func TestResolvePrivateScheduleCollapses(t *testing.T) {
	db := newTestDB(t)
	s := NewScheduleService(db)

	a := sessionResult(100, "Fishy Worker")
	b := sessionResult(100, "Fishy Worker")

	schedA, err := s.Resolve(a)
	require.NoError(t, err)
	schedB, err := s.Resolve(b)
	require.NoError(t, err)

	wantID := utils.ScheduleHash(models.ModePrivateCustom, models.RuleRegular, nil, nil, 106, []int{310, 310, 310, 310})
	assert.Equal(t, wantID, schedA.ID)
	assert.Equal(t, wantID, schedB.ID)
	assert.Equal(t, wantID, a.Result.ScheduleID)
	assert.Equal(t, wantID, b.Result.ScheduleID)

	var schedules int64
	db.Model(&models.Schedule{}).Count(&schedules)
	assert.Equal(t, int64(1), schedules)
}

func TestResolvePublicWithoutKnownRotation(t *testing.T) {
	db := newTestDB(t)
	s := NewScheduleService(db)

	n := sessionResult(100, "Fishy Worker")
	n.Schedule.Mode = models.ModeRegular

	_, err := s.Resolve(n)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}
