package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coop-results-system/dto"
	"coop-results-system/models"
	"coop-results-system/utils"
)

// ErrScheduleNotFound means no rotation window covers the submitted result.
var ErrScheduleNotFound = errors.New("no schedule covers this result")

const defaultPhaseFeedURL = "https://splatoon.oatmealdome.me/api/v1/three/coop/phases?count=5"

type ScheduleService struct {
	DB         *gorm.DB
	FeedURL    string
	HTTPClient *http.Client
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{
		DB:         db,
		FeedURL:    defaultPhaseFeedURL,
		HTTPClient: utils.HTTPClient,
	}
}

// Resolve finds or creates the schedule row a normalized result belongs to
// and stamps its id onto the result. Three cases:
//   - the client sent explicit time bounds: upsert that schedule as-is
//   - private modes: lazily create the untimed schedule, racing submitters
//     collapse onto the same hash
//   - public modes without bounds: the rotation must already be known from
//     the feed, otherwise the result is unattributable
func (s *ScheduleService) Resolve(n *dto.NormalizedResult) (*models.Schedule, error) {
	candidate := n.Schedule

	if candidate.StartTime != nil && candidate.EndTime != nil {
		candidate.ID = utils.ScheduleHash(
			candidate.Mode, candidate.Rule, candidate.StartTime, candidate.EndTime,
			candidate.StageID, candidate.WeaponList)
		if err := s.upsert(&candidate); err != nil {
			return nil, err
		}
		n.Result.ScheduleID = candidate.ID
		return &candidate, nil
	}

	if models.IsPrivate(candidate.Mode) {
		candidate.ID = utils.ScheduleHash(
			candidate.Mode, candidate.Rule, nil, nil,
			candidate.StageID, candidate.WeaponList)
		if err := s.upsert(&candidate); err != nil {
			return nil, err
		}
		n.Result.ScheduleID = candidate.ID
		return &candidate, nil
	}

	// Public modes: look the rotation up by its window.
	var schedule models.Schedule
	err := s.DB.
		Where("mode = ? AND rule = ? AND stage_id = ?", candidate.Mode, candidate.Rule, candidate.StageID).
		Where("start_time <= ? AND end_time >= ?", n.Result.PlayTime, n.Result.PlayTime).
		First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Result.ScheduleID = schedule.ID
	return &schedule, nil
}

// upsert inserts a schedule keyed by its content hash. An existing row is a
// normal outcome, not a conflict to report.
func (s *ScheduleService) upsert(schedule *models.Schedule) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(schedule).Error
}

// feedPhase is one rotation in the public phase feed.
type feedPhase struct {
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Stage       int       `json:"stage"`
	Weapons     []*int    `json:"weapons"`
	RareWeapons []int     `json:"rareWeapons"`
	BigBoss     string    `json:"bigBoss"`
	Waves       *int      `json:"waves"`
}

type feedResponse struct {
	Normal      []feedPhase `json:"Normal"`
	BigRun      []feedPhase `json:"BigRun"`
	TeamContest []feedPhase `json:"TeamContest"`
}

func bossIDFromName(name string) *int {
	var id int
	switch name {
	case "SakelienGiant":
		id = 23
	case "SakeRope":
		id = 24
	case "SakeJaw":
		id = 25
	default:
		return nil
	}
	return &id
}

// scheduleFromPhase maps a feed phase onto a schedule row. A phase with a
// wave count is the limited team-contest event; otherwise big-run stages
// live in the 100+ id range.
func scheduleFromPhase(p feedPhase) models.Schedule {
	mode := models.ModeRegular
	rule := models.RuleRegular
	if p.Waves != nil {
		mode = models.ModeLimited
		rule = models.RuleTeamContest
	} else if p.Stage >= 100 {
		rule = models.RuleBigRun
	}

	weaponList := make([]int, len(p.Weapons))
	for i, w := range p.Weapons {
		if w == nil {
			weaponList[i] = models.WeaponDummy
		} else {
			weaponList[i] = *w
		}
	}

	start, end := p.StartTime.UTC(), p.EndTime.UTC()
	return models.Schedule{
		ID:          utils.ScheduleHash(mode, rule, &start, &end, p.Stage, weaponList),
		Mode:        mode,
		Rule:        rule,
		StageID:     p.Stage,
		WeaponList:  weaponList,
		RareWeapons: p.RareWeapons,
		BossID:      bossIDFromName(p.BigBoss),
		StartTime:   &start,
		EndTime:     &end,
	}
}

// FetchPhases pulls the current rotations from the public feed and upserts
// them. Returns the schedules it saw, newest first.
func (s *ScheduleService) FetchPhases() ([]models.Schedule, error) {
	resp, err := s.HTTPClient.Get(s.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("phase feed request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("phase feed returned %d", resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode phase feed: %w", err)
	}

	phases := make([]feedPhase, 0, len(feed.Normal)+len(feed.BigRun)+len(feed.TeamContest))
	phases = append(phases, feed.Normal...)
	phases = append(phases, feed.BigRun...)
	phases = append(phases, feed.TeamContest...)

	schedules := make([]models.Schedule, len(phases))
	for i, p := range phases {
		schedules[i] = scheduleFromPhase(p)
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].StartTime.After(*schedules[j].StartTime)
	})

	for i := range schedules {
		if err := s.upsert(&schedules[i]); err != nil {
			log.Printf("⚠️ Failed to upsert schedule %s: %v", schedules[i].ID, err)
		}
	}
	return schedules, nil
}

// ListSchedules returns all known rotations, newest first.
func (s *ScheduleService) ListSchedules(c *fiber.Ctx) error {
	var schedules []models.Schedule
	if err := s.DB.Order("start_time DESC NULLS LAST").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list schedules"})
	}
	return c.JSON(schedules)
}

// RefreshSchedules re-reads the phase feed on demand.
func (s *ScheduleService) RefreshSchedules(c *fiber.Ctx) error {
	schedules, err := s.FetchPhases()
	if err != nil {
		log.Printf("❌ Schedule refresh failed: %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "phase feed unavailable"})
	}
	return c.JSON(schedules)
}
