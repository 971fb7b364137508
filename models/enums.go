package models

// Mode mirrors the upstream CoopMode enum. Values are part of the schedule
// hash input, so they must never change.
const (
	ModeRegular         = "REGULAR"
	ModeLimited         = "LIMITED"
	ModePrivateCustom   = "PRIVATE_CUSTOM"
	ModePrivateScenario = "PRIVATE_SCENARIO"
)

// Rule mirrors the upstream CoopRule enum. Also a hash input.
const (
	RuleRegular     = "REGULAR"
	RuleBigRun      = "BIG_RUN"
	RuleTeamContest = "TEAM_CONTEST"
)

const (
	// SpeciesInkling / SpeciesOctoling are the only valid player species.
	SpeciesInkling  = "INKLING"
	SpeciesOctoling = "OCTOLING"
)

// WeaponDummy marks a weapon whose asset hash could not be mapped back to an
// id. Stored as-is; never an error.
const WeaponDummy = -999

// FailureWaveDisconnect is the sentinel the client sends when the run ended
// with a connection drop. Every wave of such a run counts as failed.
const FailureWaveDisconnect = -1

// IsPrivate reports whether a mode has no schedule time window.
func IsPrivate(mode string) bool {
	return mode == ModePrivateCustom || mode == ModePrivateScenario
}
