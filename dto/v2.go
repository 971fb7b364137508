package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"coop-results-system/models"
	"coop-results-system/utils"
)

// ErrIncompleteResult flags a submission with no waves that is not a
// connection drop. Only a drop can legitimately produce an empty wave list.
var ErrIncompleteResult = errors.New("results without waves must be connection drops")

// V2Request is the intermediate wire generation: the client decodes tokens
// and resolves weapon ids itself and sends flat integers, along with the
// schedule the result was played on. Results arrive in batches.
type V2Request struct {
	Results []V2Result `json:"results"`
}

// V2Schedule is the client-resolved schedule the result belongs to. Private
// sessions send null time bounds.
type V2Schedule struct {
	ID          string     `json:"id"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Mode        string     `json:"mode"`
	Rule        string     `json:"rule"`
	StageID     int        `json:"stageId"`
	WeaponList  []int      `json:"weaponList"`
	RareWeapons []int      `json:"rareWeapons"`
}

// V2Wave is one wave outcome, already flattened by the client.
type V2Wave struct {
	WaterLevel        int  `json:"waterLevel"`
	EventType         int  `json:"eventType"`
	QuotaNum          *int `json:"quotaNum"`
	GoldenIkuraPopNum int  `json:"goldenIkuraPopNum"`
	GoldenIkuraNum    *int `json:"goldenIkuraNum"`
	ID                int  `json:"id"`
	IsClear           bool `json:"isClear"`
}

// V2JobResult is the run outcome block.
type V2JobResult struct {
	BossID         *int  `json:"bossId"`
	IsBossDefeated *bool `json:"isBossDefeated"`
	FailureWave    *int  `json:"failureWave"`
	IsClear        bool  `json:"isClear"`
}

// V2Nameplate carries already-decoded badge and background ids.
type V2Nameplate struct {
	Badges     []*int `json:"badges"`
	Background struct {
		TextColor RGBA `json:"textColor"`
		ID        int  `json:"id"`
	} `json:"background"`
}

// V2Player is one participant, flat. Identity comes from nplnUserId rather
// than an opaque token.
type V2Player struct {
	Byname               string      `json:"byname"`
	Name                 string      `json:"name"`
	NameID               string      `json:"nameId"`
	Nameplate            V2Nameplate `json:"nameplate"`
	Uniform              int         `json:"uniform"`
	ID                   string      `json:"id"`
	Species              string      `json:"species"`
	WeaponList           []int       `json:"weaponList"`
	SpecialID            *int        `json:"specialId"`
	BossKillCountsTotal  int         `json:"bossKillCountsTotal"`
	IkuraNum             int         `json:"ikuraNum"`
	GoldenIkuraNum       int         `json:"goldenIkuraNum"`
	NplnUserID           string      `json:"nplnUserId"`
	IsMyself             bool        `json:"isMyself"`
	GoldenIkuraAssistNum int         `json:"goldenIkuraAssistNum"`
	DeadCount            int         `json:"deadCount"`
	HelpCount            int         `json:"helpCount"`
	SpecialCounts        []int       `json:"specialCounts"`
	BossKillCounts       []int       `json:"bossKillCounts"` // -1 marks unknown
}

// V2Result is one batch entry. The identifier arrives already decoded as an
// object rather than a base64 token.
type V2Result struct {
	ID             ResultID    `json:"id"`
	Scale          []*int      `json:"scale"` // bronze, silver, gold
	JobScore       *int        `json:"jobScore"`
	GradeID        *int        `json:"gradeId"`
	KumaPoint      *int        `json:"kumaPoint"`
	WaveDetails    []V2Wave    `json:"waveDetails"`
	JobResult      V2JobResult `json:"jobResult"`
	MyResult       V2Player    `json:"myResult"`
	OtherResults   []V2Player  `json:"otherResults"`
	GradePoint     *int        `json:"gradePoint"`
	JobRate        *float64    `json:"jobRate"`
	BossCounts     []int       `json:"bossCounts"`
	BossKillCounts []int       `json:"bossKillCounts"`
	DangerRate     float64     `json:"dangerRate"`
	JobBonus       *int        `json:"jobBonus"`
	Schedule       V2Schedule  `json:"schedule"`
	SmellMeter     *int        `json:"smellMeter"`
	ScenarioCode   *string     `json:"scenarioCode"`
}

func foldUnknownCounts(counts []int) []*int {
	out := make([]*int, len(counts))
	for i, c := range counts {
		if c == -1 {
			continue
		}
		n := c
		out[i] = &n
	}
	return out
}

func (r *V2Result) normalizePlayer(p V2Player, uuid string, playTime time.Time) models.Player {
	tc := p.Nameplate.Background.TextColor
	out := models.Player{
		PlayerID:      utils.PlayerHash(uuid, playTime, p.NplnUserID),
		UUID:          uuid,
		PlayTime:      playTime,
		NplnUserID:    p.NplnUserID,
		IsMyself:      p.IsMyself,
		Name:          p.Name,
		Byname:        p.Byname,
		NameID:        p.NameID,
		Species:       p.Species,
		Nameplate:     p.Nameplate.Background.ID,
		Badges:        p.Nameplate.Badges,
		TextColor:     []float64{tc.R, tc.G, tc.B, tc.A},
		Uniform:       p.Uniform,
		WeaponList:    p.WeaponList,
		SpecialID:     p.SpecialID,
		SpecialCounts: p.SpecialCounts,

		BossKillCounts:       foldUnknownCounts(p.BossKillCounts),
		BossKillCountsTotal:  p.BossKillCountsTotal,
		IkuraNum:             p.IkuraNum,
		GoldenIkuraNum:       p.GoldenIkuraNum,
		GoldenIkuraAssistNum: p.GoldenIkuraAssistNum,
		HelpCount:            p.HelpCount,
		DeadCount:            p.DeadCount,
	}

	// Grade and job stats ride on the result, not the player, in this
	// generation; they belong to the submitter alone.
	if p.IsMyself {
		out.GradeID = r.GradeID
		out.GradePoint = r.GradePoint
		out.JobScore = r.JobScore
		out.JobRate = r.JobRate
		out.JobBonus = r.JobBonus
		out.KumaPoint = r.KumaPoint
		out.SmellMeter = r.SmellMeter
	}
	return out
}

// Normalize implements Normalizer for one intermediate-generation batch
// entry. The weapon table goes unused since the client sends resolved ids.
// Totals and per-wave clear flags are recomputed rather than trusted, since
// the underlying per-player and per-wave values are all present.
func (r *V2Result) Normalize(_ WeaponTable) (*NormalizedResult, error) {
	if len(r.WaveDetails) == 0 {
		if r.JobResult.FailureWave == nil || *r.JobResult.FailureWave != models.FailureWaveDisconnect {
			return nil, ErrIncompleteResult
		}
	}

	canonicalUUID := strings.ToUpper(r.ID.UUID)
	playTime := r.ID.PlayTime.UTC()
	failureWave := r.JobResult.FailureWave
	rowID := uuid.NewString()

	waves := make([]models.Wave, len(r.WaveDetails))
	for i, w := range r.WaveDetails {
		waves[i] = models.Wave{
			WaveHash:          utils.WaveHash(canonicalUUID, playTime, w.ID),
			ResultRowID:       rowID,
			UUID:              canonicalUUID,
			PlayTime:          playTime,
			WaveID:            w.ID,
			WaterLevel:        w.WaterLevel,
			EventType:         w.EventType,
			QuotaNum:          w.QuotaNum,
			GoldenIkuraPopNum: w.GoldenIkuraPopNum,
			GoldenIkuraNum:    w.GoldenIkuraNum,
			IsClear:           WaveIsClear(w.ID, w.QuotaNum, failureWave, r.JobResult.IsBossDefeated),
		}
	}

	players := make([]models.Player, 0, 1+len(r.OtherResults))
	self := r.normalizePlayer(r.MyResult, canonicalUUID, playTime)
	self.ResultRowID = rowID
	players = append(players, self)
	for _, other := range r.OtherResults {
		p := r.normalizePlayer(other, canonicalUUID, playTime)
		p.ResultRowID = rowID
		players = append(players, p)
	}

	ikura, goldenAssist := sumPlayerIkura(players)

	var bronze, silver, gold *int
	if len(r.Scale) == 3 {
		bronze, silver, gold = r.Scale[0], r.Scale[1], r.Scale[2]
	}

	return &NormalizedResult{
		Schedule: models.Schedule{
			Mode:        r.Schedule.Mode,
			Rule:        r.Schedule.Rule,
			StageID:     r.Schedule.StageID,
			WeaponList:  r.Schedule.WeaponList,
			RareWeapons: r.Schedule.RareWeapons,
			StartTime:   r.Schedule.StartTime,
			EndTime:     r.Schedule.EndTime,
		},
		Result: models.Result{
			ID:       rowID,
			ResultID: utils.ResultHash(canonicalUUID, playTime),
			UUID:     canonicalUUID,
			PlayTime: playTime,

			IsClear:        r.JobResult.IsClear,
			FailureWave:    failureWave,
			BossID:         r.JobResult.BossID,
			IsBossDefeated: r.JobResult.IsBossDefeated,

			IkuraNum:             ikura,
			GoldenIkuraNum:       sumWaveGoldenIkura(waves),
			GoldenIkuraAssistNum: goldenAssist,
			DangerRate:           r.DangerRate,

			BossCounts:     r.BossCounts,
			BossKillCounts: r.BossKillCounts,

			Bronze: bronze,
			Silver: silver,
			Gold:   gold,

			Members:      memberIDs(players),
			NightLess:    nightLess(waves),
			ScenarioCode: r.ScenarioCode,

			Players: players,
			Waves:   waves,
		},
	}, nil
}
