// Package dto decodes the three generations of the upstream client's result
// payloads and normalizes them into the canonical storage model.
package dto

// Sentinel values used when a loosely-encoded enum token fails to decode.
// These mirror the upstream client's behavior field by field; a few of them
// look like copy-paste drift upstream (see FallbackEventWave) but changing
// them would silently change stored data, so they are preserved verbatim.
const (
	// FallbackEventWave is grade zero, not an event id. Upstream reuses the
	// grade sentinel here; preserved as-is.
	FallbackEventWave = 0

	// FallbackSpecialWeapon is the green random capsule.
	FallbackSpecialWeapon = -1

	// FallbackUniform is the default orange slopsuit (COP001).
	FallbackUniform = 1

	// FallbackBackground is the plain nameplate background.
	FallbackBackground = 1

	// FallbackBadgeLegacy is what the first wire generation substitutes for
	// an undecodable badge; later generations store null instead.
	FallbackBadgeLegacy = 1

	// FallbackSpecialWeaponLegacy is the first generation's special-usage
	// sentinel. It reuses the grade-zero sentinel like FallbackEventWave.
	FallbackSpecialWeaponLegacy = 0
)

// EventWaterLevels is the "no event" wave type.
const EventWaterLevels = 0

// EnemyIDs is the canonical boss-salmonid id order. BossCounts and
// BossKillCounts arrays are index-aligned to this list, so the order is part
// of the stored data contract.
var EnemyIDs = []int{4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 17, 20}
