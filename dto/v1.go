package dto

import (
	"time"

	"github.com/google/uuid"

	"coop-results-system/models"
	"coop-results-system/utils"
)

// V1Request is the oldest wire generation still accepted. The shape mirrors
// the raw payload like V3Request, but identifiers use the legacy codec (local
// timestamps, nine hours ahead of UTC) and weapon ids are sent as plain
// integers instead of asset URLs. Results arrive in batches.
type V1Request struct {
	Results []V1Result `json:"results"`
}

// V1Result is one batch entry.
type V1Result struct {
	Data struct {
		CoopHistoryDetail V1HistoryDetail `json:"coopHistoryDetail"`
	} `json:"data"`
}

// IDImage wraps a weapon id that the legacy client already resolved.
type IDImage struct {
	Image struct {
		ID int `json:"id"`
	} `json:"image"`
}

// V1MemberResult is one participant's stats block. The player descriptor and
// wave/enemy shapes are shared with the current generation.
type V1MemberResult struct {
	Player        V3Player  `json:"player"`
	Weapons       []IDImage `json:"weapons"`
	SpecialWeapon *struct {
		WeaponID int `json:"weaponId"`
	} `json:"specialWeapon"`
	DefeatEnemyCount   int `json:"defeatEnemyCount"`
	DeliverCount       int `json:"deliverCount"`
	GoldenAssistCount  int `json:"goldenAssistCount"`
	GoldenDeliverCount int `json:"goldenDeliverCount"`
	RescueCount        int `json:"rescueCount"`
	RescuedCount       int `json:"rescuedCount"`
}

// V1HistoryDetail is the session detail of the legacy generation.
type V1HistoryDetail struct {
	ID              string           `json:"id"`
	AfterGrade      *TokenID         `json:"afterGrade"`
	MyResult        V1MemberResult   `json:"myResult"`
	MemberResults   []V1MemberResult `json:"memberResults"`
	BossResult      *V3BossResult    `json:"bossResult"`
	EnemyResults    []V3EnemyResult  `json:"enemyResults"`
	WaveResults     []V3WaveResult   `json:"waveResults"`
	ResultWave      int              `json:"resultWave"`
	PlayedTime      time.Time        `json:"playedTime"`
	Rule            string           `json:"rule"`
	CoopStage       TokenID          `json:"coopStage"`
	DangerRate      float64          `json:"dangerRate"`
	ScenarioCode    *string          `json:"scenarioCode"`
	SmellMeter      *int             `json:"smellMeter"`
	AfterGradePoint *int             `json:"afterGradePoint"`
	Scale           *V3Scale         `json:"scale"`
	JobPoint        *int             `json:"jobPoint"`
	JobScore        *int             `json:"jobScore"`
	JobRate         *float64         `json:"jobRate"`
	JobBonus        *int             `json:"jobBonus"`
	Weapons         []IDImage        `json:"weapons"`
}

func (r *V1Result) normalizePlayer(m V1MemberResult, self bool, t enemyTallies) (models.Player, error) {
	d := r.Data.CoopHistoryDetail

	pid, err := DecodeLegacyPlayerID(m.Player.ID)
	if err != nil {
		return models.Player{}, err
	}

	weaponList := make([]int, len(m.Weapons))
	for i, w := range m.Weapons {
		weaponList[i] = w.Image.ID
	}

	// The legacy client substituted a plain badge on decode miss where the
	// current one stores null.
	badges := make([]*int, len(m.Player.Nameplate.Badges))
	for i, b := range m.Player.Nameplate.Badges {
		if b != nil {
			id := DecodeTokenOr(b.ID, FallbackBadgeLegacy)
			badges[i] = &id
		}
	}

	var specialID *int
	if m.SpecialWeapon != nil {
		specialID = &m.SpecialWeapon.WeaponID
	}

	bossKills := make([]*int, len(EnemyIDs))
	if self {
		for i := range EnemyIDs {
			n := t.defeat[i]
			bossKills[i] = &n
		}
	}

	tc := m.Player.Nameplate.Background.TextColor
	p := models.Player{
		PlayerID:      utils.PlayerHash(pid.UUID, pid.PlayTime, pid.NplnUserID),
		UUID:          pid.UUID,
		PlayTime:      pid.PlayTime,
		NplnUserID:    pid.NplnUserID,
		IsMyself:      pid.IsMyself(),
		Name:          m.Player.Name,
		Byname:        m.Player.Byname,
		NameID:        m.Player.NameID,
		Species:       m.Player.Species,
		Nameplate:     DecodeTokenOr(m.Player.Nameplate.Background.ID, FallbackBackground),
		Badges:        badges,
		TextColor:     []float64{tc.R, tc.G, tc.B, tc.A},
		Uniform:       DecodeTokenOr(m.Player.Uniform.ID, FallbackUniform),
		WeaponList:    weaponList,
		SpecialID:     specialID,
		SpecialCounts: specialUsageCounts(d.WaveResults, specialID, FallbackSpecialWeaponLegacy),

		BossKillCounts:       bossKills,
		BossKillCountsTotal:  m.DefeatEnemyCount,
		IkuraNum:             m.DeliverCount,
		GoldenIkuraNum:       m.GoldenDeliverCount,
		GoldenIkuraAssistNum: m.GoldenAssistCount,
		HelpCount:            m.RescueCount,
		DeadCount:            m.RescuedCount,
	}

	if self {
		if d.AfterGrade != nil {
			p.GradeID = DecodeTokenPtr(d.AfterGrade.ID)
		}
		p.GradePoint = d.AfterGradePoint
		p.JobScore = d.JobScore
		p.JobRate = d.JobRate
		p.JobBonus = d.JobBonus
		p.KumaPoint = d.JobPoint
		p.SmellMeter = d.SmellMeter
	}
	return p, nil
}

// Normalize implements Normalizer for a single legacy batch entry. The
// weapon table goes unused here since the legacy client sends resolved ids.
func (r *V1Result) Normalize(_ WeaponTable) (*NormalizedResult, error) {
	d := r.Data.CoopHistoryDetail

	rid, err := DecodeLegacyResultID(d.ID)
	if err != nil {
		return nil, err
	}
	stageID, err := DecodeToken(d.CoopStage.ID)
	if err != nil {
		return nil, err
	}
	tallies, err := tallyEnemies(d.EnemyResults)
	if err != nil {
		return nil, err
	}

	var bossID *int
	var bossDefeated *bool
	if d.BossResult != nil {
		id, err := DecodeToken(d.BossResult.Boss.ID)
		if err != nil {
			return nil, err
		}
		bossID = &id
		defeated := d.BossResult.HasDefeatBoss
		bossDefeated = &defeated
	}

	failureWave := failureWaveOf(d.ResultWave)
	rowID := uuid.NewString()

	waves := make([]models.Wave, len(d.WaveResults))
	for i, w := range d.WaveResults {
		eventType := EventWaterLevels
		if w.EventWave != nil {
			eventType = DecodeTokenOr(w.EventWave.ID, FallbackEventWave)
		}
		waves[i] = models.Wave{
			WaveHash:          utils.WaveHash(rid.UUID, rid.PlayTime, w.WaveNumber),
			ResultRowID:       rowID,
			UUID:              rid.UUID,
			PlayTime:          rid.PlayTime,
			WaveID:            w.WaveNumber,
			WaterLevel:        w.WaterLevel,
			EventType:         eventType,
			QuotaNum:          w.DeliverNorm,
			GoldenIkuraPopNum: w.GoldenPopCount,
			GoldenIkuraNum:    w.TeamDeliverCount,
			IsClear:           WaveIsClear(w.WaveNumber, w.DeliverNorm, failureWave, bossDefeated),
		}
	}

	players := make([]models.Player, 0, 1+len(d.MemberResults))
	self, err := r.normalizePlayer(d.MyResult, true, tallies)
	if err != nil {
		return nil, err
	}
	self.ResultRowID = rowID
	players = append(players, self)
	for _, m := range d.MemberResults {
		p, err := r.normalizePlayer(m, false, tallies)
		if err != nil {
			return nil, err
		}
		p.ResultRowID = rowID
		players = append(players, p)
	}

	weaponList := make([]int, len(d.Weapons))
	for i, w := range d.Weapons {
		weaponList[i] = w.Image.ID
	}

	ikura, goldenAssist := sumPlayerIkura(players)

	var bronze, silver, gold *int
	if d.Scale != nil {
		bronze, silver, gold = d.Scale.Bronze, d.Scale.Silver, d.Scale.Gold
	}

	return &NormalizedResult{
		Schedule: models.Schedule{
			Mode:       DeriveMode(d.Rule, d.ScenarioCode, d.SmellMeter),
			Rule:       d.Rule,
			StageID:    stageID,
			WeaponList: weaponList,
		},
		Result: models.Result{
			ID:       rowID,
			ResultID: utils.ResultHash(rid.UUID, rid.PlayTime),
			UUID:     rid.UUID,
			PlayTime: rid.PlayTime,

			IsClear:        d.ResultWave == 0,
			FailureWave:    failureWave,
			BossID:         bossID,
			IsBossDefeated: bossDefeated,

			IkuraNum:             ikura,
			GoldenIkuraNum:       sumWaveGoldenIkura(waves),
			GoldenIkuraAssistNum: goldenAssist,
			DangerRate:           d.DangerRate,

			BossCounts:     tallies.pop,
			BossKillCounts: tallies.teamDefeat,

			Bronze: bronze,
			Silver: silver,
			Gold:   gold,

			Members:      memberIDs(players),
			NightLess:    nightLess(waves),
			ScenarioCode: d.ScenarioCode,

			Players: players,
			Waves:   waves,
		},
	}, nil
}
