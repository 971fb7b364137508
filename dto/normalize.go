package dto

import (
	"coop-results-system/models"
)

// NormalizedResult is what every wire generation normalizes into: the
// canonical result plus the schedule candidate it claims to belong to. The
// schedule resolver decides whether the candidate maps to a pre-seeded public
// schedule or a lazily-created private one.
type NormalizedResult struct {
	Schedule models.Schedule
	Result   models.Result
}

// Normalizer is implemented by each wire generation's request type.
type Normalizer interface {
	Normalize(weapons WeaponTable) (*NormalizedResult, error)
}

// DeriveMode computes the game mode from the rule and the presence of the
// version-dependent optional fields. The client sends no explicit mode for
// regular-rule results; this table is the only signal separating a private
// custom match from a public rotation match, so it must not be "simplified".
func DeriveMode(rule string, scenarioCode *string, smellMeter *int) string {
	switch rule {
	case models.RuleBigRun:
		return models.ModeRegular
	case models.RuleTeamContest:
		return models.ModeLimited
	default: // RuleRegular
		if scenarioCode != nil {
			return models.ModePrivateScenario
		}
		if smellMeter == nil {
			return models.ModePrivateCustom
		}
		return models.ModeRegular
	}
}

// WaveIsClear reproduces the per-wave clear rules:
//   - a disconnected run (failureWave -1) fails every wave;
//   - when a king salmonid appeared, the quota-less bonus wave is clear iff
//     the boss fell, and every quota wave is clear regardless;
//   - otherwise a wave is clear unless it is the recorded failure wave.
func WaveIsClear(waveID int, quotaNum *int, failureWave *int, isBossDefeated *bool) bool {
	if failureWave != nil && *failureWave == models.FailureWaveDisconnect {
		return false
	}
	if isBossDefeated != nil {
		if quotaNum == nil {
			return *isBossDefeated
		}
		return true
	}
	return failureWave == nil || waveID != *failureWave
}

// failureWaveOf converts the wire's resultWave into the canonical nullable
// form: 0 means the run was cleared and maps to nil.
func failureWaveOf(resultWave int) *int {
	if resultWave == 0 {
		return nil
	}
	return &resultWave
}

// sumPlayerIkura recomputes the team ikura total from per-player counts.
// Client-sent totals are ignored; old clients did not send them at all.
func sumPlayerIkura(players []models.Player) (ikura, goldenAssist int) {
	for _, p := range players {
		ikura += p.IkuraNum
		goldenAssist += p.GoldenIkuraAssistNum
	}
	return ikura, goldenAssist
}

// sumWaveGoldenIkura recomputes the delivered golden-ikura total. A nil wave
// count means the delivery was intercepted; it counts as 0 in the sum but
// stays nil on the wave row.
func sumWaveGoldenIkura(waves []models.Wave) int {
	total := 0
	for _, w := range waves {
		if w.GoldenIkuraNum != nil {
			total += *w.GoldenIkuraNum
		}
	}
	return total
}

// nightLess reports whether the run had no event waves at all.
func nightLess(waves []models.Wave) bool {
	for _, w := range waves {
		if w.EventType != EventWaterLevels {
			return false
		}
	}
	return true
}

// memberIDs lists the npln user ids of all participants, self first.
func memberIDs(players []models.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.NplnUserID
	}
	return ids
}
