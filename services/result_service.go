package services

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coop-results-system/dto"
	"coop-results-system/models"
)

type ResultService struct {
	DB        *gorm.DB
	Schedules *ScheduleService
	Resources *ResourceService
}

func NewResultService(db *gorm.DB, schedules *ScheduleService, resources *ResourceService) *ResultService {
	return &ResultService{DB: db, Schedules: schedules, Resources: resources}
}

// batchOutcome reports one entry of a batch submission. Failed entries never
// abort their siblings.
type batchOutcome struct {
	Index      int    `json:"index"`
	ResultID   string `json:"result_id,omitempty"`
	ScheduleID string `json:"schedule_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, dto.ErrMalformedIdentifier), errors.Is(err, dto.ErrIncompleteResult):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrScheduleNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// save runs the whole pipeline for one normalized result: schedule
// resolution, then the conditional upsert. Re-submission of a known session
// only refreshes the submitter's player row, since that is the only data a
// second client can contribute.
func (s *ResultService) save(n *dto.NormalizedResult) (*models.Result, error) {
	if _, err := s.Schedules.Resolve(n); err != nil {
		return nil, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Omit("Schedule", "Players", "Waves").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "play_time"}, {Name: "uuid"}, {Name: "schedule_id"}},
				DoNothing: true,
			}).
			Create(&n.Result)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// Already stored. Refresh the submitter's row only.
			var existing models.Result
			if err := tx.
				Where("play_time = ? AND uuid = ? AND schedule_id = ?",
					n.Result.PlayTime, n.Result.UUID, n.Result.ScheduleID).
				First(&existing).Error; err != nil {
				return err
			}
			n.Result.ID = existing.ID

			for i := range n.Result.Players {
				p := &n.Result.Players[i]
				if !p.IsMyself {
					continue
				}
				p.ResultRowID = existing.ID
				if err := tx.Model(&models.Player{}).
					Where("play_time = ? AND uuid = ? AND npln_user_id = ?",
						p.PlayTime, p.UUID, p.NplnUserID).
					Select("*").
					Omit("id", "result_row_id", "created_at", "deleted_at").
					Updates(p).Error; err != nil {
					return err
				}
			}
			return nil
		}

		if len(n.Result.Players) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "play_time"}, {Name: "uuid"}, {Name: "npln_user_id"}},
				DoNothing: true,
			}).Create(&n.Result.Players).Error; err != nil {
				return err
			}
		}
		if len(n.Result.Waves) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "play_time"}, {Name: "uuid"}, {Name: "wave_id"}},
				DoNothing: true,
			}).Create(&n.Result.Waves).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &n.Result, nil
}

// saveBatch normalizes and saves every entry concurrently; the storage
// upserts keep racing duplicates safe.
func (s *ResultService) saveBatch(entries []dto.Normalizer) []batchOutcome {
	weapons := s.Resources.Weapons()
	outcomes := make([]batchOutcome, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry dto.Normalizer) {
			defer wg.Done()
			outcomes[i].Index = i

			n, err := entry.Normalize(weapons)
			if err != nil {
				outcomes[i].Error = err.Error()
				return
			}
			saved, err := s.save(n)
			if err != nil {
				outcomes[i].Error = err.Error()
				return
			}
			outcomes[i].ResultID = saved.ResultID
			outcomes[i].ScheduleID = saved.ScheduleID
		}(i, entry)
	}
	wg.Wait()
	return outcomes
}

// CreateV3 ingests a single raw-format result.
func (s *ResultService) CreateV3(c *fiber.Ctx) error {
	var req dto.V3Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	n, err := req.Normalize(s.Resources.Weapons())
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	saved, err := s.save(n)
	if err != nil {
		return c.Status(statusFromError(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// CreateV2 ingests a batch of client-flattened results.
func (s *ResultService) CreateV2(c *fiber.Ctx) error {
	var req dto.V2Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Results) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "results must not be empty"})
	}

	entries := make([]dto.Normalizer, len(req.Results))
	for i := range req.Results {
		entries[i] = &req.Results[i]
	}
	return c.JSON(fiber.Map{"results": s.saveBatch(entries)})
}

// CreateV1 ingests a batch of legacy nested results.
func (s *ResultService) CreateV1(c *fiber.Ctx) error {
	var req dto.V1Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if len(req.Results) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "results must not be empty"})
	}

	entries := make([]dto.Normalizer, len(req.Results))
	for i := range req.Results {
		entries[i] = &req.Results[i]
	}
	return c.JSON(fiber.Map{"results": s.saveBatch(entries)})
}

// GetResult returns one stored result by its content hash.
func (s *ResultService) GetResult(c *fiber.Ctx) error {
	id := c.Params("id")

	var result models.Result
	err := s.DB.
		Preload("Schedule").
		Preload("Players").
		Preload("Waves").
		Where("result_id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "result not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load result"})
	}
	return c.JSON(result)
}

// ScenarioRecord is the best recorded run for one scenario code.
type ScenarioRecord struct {
	ScenarioCode   string `json:"scenario_code"`
	IkuraNum       int    `json:"ikura_num"`
	GoldenIkuraNum int    `json:"golden_ikura_num"`
	Plays          int    `json:"plays"`
}

// GetScenarios ranks scenario-mode sessions by their best scores.
func (s *ResultService) GetScenarios(c *fiber.Ctx) error {
	var records []ScenarioRecord
	err := s.DB.Model(&models.Result{}).
		Select("scenario_code, MAX(ikura_num) AS ikura_num, MAX(golden_ikura_num) AS golden_ikura_num, COUNT(*) AS plays").
		Where("scenario_code IS NOT NULL").
		Group("scenario_code").
		Order("golden_ikura_num DESC").
		Scan(&records).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to rank scenarios"})
	}
	return c.JSON(records)
}
