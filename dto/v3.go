package dto

import (
	"time"

	"github.com/google/uuid"

	"coop-results-system/models"
	"coop-results-system/utils"
)

// V3Request is the current wire generation: the raw GraphQL-shaped payload
// the client lifts from the game's backend. Identifiers arrive as opaque
// base64 tokens and every aggregate has to be derived server-side.
type V3Request struct {
	Data struct {
		CoopHistoryDetail V3HistoryDetail `json:"coopHistoryDetail"`
	} `json:"data"`
}

// TokenID wraps a single base64 enum token.
type TokenID struct {
	ID string `json:"id"`
}

// AssetImage wraps an asset URL; weapon ids hide in the 64-hex hash of the
// file name.
type AssetImage struct {
	Image struct {
		URL string `json:"url"`
	} `json:"image"`
}

// RGBA is a nameplate text color.
type RGBA struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	G float64 `json:"g"`
	R float64 `json:"r"`
}

// V3Nameplate carries up to three badge tokens plus a background token.
type V3Nameplate struct {
	Badges     []*TokenID `json:"badges"`
	Background struct {
		TextColor RGBA   `json:"textColor"`
		ID        string `json:"id"`
	} `json:"background"`
}

// V3Player is the inner player descriptor of a member result.
type V3Player struct {
	Byname    string      `json:"byname"`
	Name      string      `json:"name"`
	NameID    string      `json:"nameId"`
	Nameplate V3Nameplate `json:"nameplate"`
	Uniform   TokenID     `json:"uniform"`
	ID        string      `json:"id"` // opaque PlayerID
	Species   string      `json:"species"`
}

// V3MemberResult is one participant's stats block.
type V3MemberResult struct {
	Player        V3Player     `json:"player"`
	Weapons       []AssetImage `json:"weapons"`
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

// V3WaveResult is one wave's outcome.
type V3WaveResult struct {
	WaterLevel       int       `json:"waterLevel"`
	EventWave        *TokenID  `json:"eventWave"`
	DeliverNorm      *int      `json:"deliverNorm"`
	GoldenPopCount   int       `json:"goldenPopCount"`
	TeamDeliverCount *int      `json:"teamDeliverCount"`
	SpecialWeapons   []TokenID `json:"specialWeapons"`
	WaveNumber       int       `json:"waveNumber"`
}

// V3EnemyResult is one boss-salmonid tally.
type V3EnemyResult struct {
	DefeatCount     int `json:"defeatCount"`
	TeamDefeatCount int `json:"teamDefeatCount"`
	PopCount        int `json:"popCount"`
	Enemy           struct {
		ID    string `json:"id"`
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"enemy"`
}

// V3BossResult reports the king-salmonid encounter, when one appeared.
type V3BossResult struct {
	HasDefeatBoss bool    `json:"hasDefeatBoss"`
	Boss          TokenID `json:"boss"`
}

// V3Scale carries the king-salmonid scale rewards.
type V3Scale struct {
	Gold   *int `json:"gold"`
	Silver *int `json:"silver"`
	Bronze *int `json:"bronze"`
}

// V3HistoryDetail is the session detail itself.
type V3HistoryDetail struct {
	ID              string           `json:"id"`
	AfterGrade      *TokenID         `json:"afterGrade"`
	MyResult        V3MemberResult   `json:"myResult"`
	MemberResults   []V3MemberResult `json:"memberResults"`
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
	Weapons         []AssetImage     `json:"weapons"`
}

// enemyTallies index-aligns the loose enemyResults list to EnemyIDs.
type enemyTallies struct {
	pop, defeat, teamDefeat []int
}

func tallyEnemies(results []V3EnemyResult) (enemyTallies, error) {
	byID := make(map[int]V3EnemyResult, len(results))
	for _, e := range results {
		id, err := DecodeToken(e.Enemy.ID)
		if err != nil {
			return enemyTallies{}, err
		}
		byID[id] = e
	}
	t := enemyTallies{
		pop:        make([]int, len(EnemyIDs)),
		defeat:     make([]int, len(EnemyIDs)),
		teamDefeat: make([]int, len(EnemyIDs)),
	}
	for i, id := range EnemyIDs {
		if e, ok := byID[id]; ok {
			t.pop[i] = e.PopCount
			t.defeat[i] = e.DefeatCount
			t.teamDefeat[i] = e.TeamDefeatCount
		}
	}
	return t, nil
}

// specialUsageCounts counts, per wave, how often the member's own special was
// fired. Wave special tokens fall back to the green random capsule on decode
// miss, matching the upstream table.
func specialUsageCounts(waves []V3WaveResult, specialID *int, fallback int) []int {
	counts := make([]int, len(waves))
	if specialID == nil {
		return counts
	}
	for i, w := range waves {
		for _, token := range w.SpecialWeapons {
			if DecodeTokenOr(token.ID, fallback) == *specialID {
				counts[i]++
			}
		}
	}
	return counts
}

func (r *V3Request) normalizePlayer(m V3MemberResult, self bool, weapons WeaponTable, t enemyTallies) (models.Player, error) {
	d := r.Data.CoopHistoryDetail

	pid, err := DecodePlayerID(m.Player.ID)
	if err != nil {
		return models.Player{}, err
	}

	weaponList := make([]int, len(m.Weapons))
	for i, w := range m.Weapons {
		weaponList[i] = weapons.Lookup(w.Image.URL)
	}

	badges := make([]*int, len(m.Player.Nameplate.Badges))
	for i, b := range m.Player.Nameplate.Badges {
		if b != nil {
			badges[i] = DecodeTokenPtr(b.ID)
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
		SpecialCounts: specialUsageCounts(d.WaveResults, specialID, FallbackSpecialWeapon),

		BossKillCounts:       bossKills,
		BossKillCountsTotal:  m.DefeatEnemyCount,
		IkuraNum:             m.DeliverCount,
		GoldenIkuraNum:       m.GoldenDeliverCount,
		GoldenIkuraAssistNum: m.GoldenAssistCount,
		HelpCount:            m.RescueCount,
		DeadCount:            m.RescuedCount,
	}

	// Grade and job stats are only known for the submitting player.
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

// Normalize implements Normalizer for the current wire generation.
func (r *V3Request) Normalize(weapons WeaponTable) (*NormalizedResult, error) {
	d := r.Data.CoopHistoryDetail

	rid, err := DecodeResultID(d.ID)
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
	self, err := r.normalizePlayer(d.MyResult, true, weapons, tallies)
	if err != nil {
		return nil, err
	}
	self.ResultRowID = rowID
	players = append(players, self)
	for _, m := range d.MemberResults {
		p, err := r.normalizePlayer(m, false, weapons, tallies)
		if err != nil {
			return nil, err
		}
		p.ResultRowID = rowID
		players = append(players, p)
	}

	weaponList := make([]int, len(d.Weapons))
	for i, w := range d.Weapons {
		weaponList[i] = weapons.Lookup(w.Image.URL)
	}

	ikura, goldenAssist := sumPlayerIkura(players)

	var bronze, silver, gold *int
	if d.Scale != nil {
		bronze, silver, gold = d.Scale.Bronze, d.Scale.Silver, d.Scale.Gold
	}

	mode := DeriveMode(d.Rule, d.ScenarioCode, d.SmellMeter)

	return &NormalizedResult{
		Schedule: models.Schedule{
			Mode:       mode,
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
