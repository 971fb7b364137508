package dto

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"coop-results-system/models"
)

// Enum tokens are the looser cousins of the opaque identifiers: base64 of
// `{TypeName}-{integer}`, e.g. `Q29vcEVuZW15LTQ=` -> `CoopEnemy-4`. Only the
// trailing integer matters. Unlike identifier decode, a miss here is almost
// never fatal: each field falls back to its own sentinel (see enums.go).

var (
	tokenPattern      = regexp.MustCompile(`-(\d[\d-]*)`)
	weaponHashPattern = regexp.MustCompile(`[a-f0-9]{64}`)
)

func decodeTokenInt(raw string) (int, bool) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return 0, false
	}
	match := tokenPattern.FindStringSubmatch(string(decoded))
	if match == nil {
		return 0, false
	}
	// Keep only the leading digit run; parseInt-style.
	digits := match[1]
	if i := strings.IndexByte(digits, '-'); i >= 0 {
		digits = digits[:i]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DecodeToken decodes an enum token or fails. Used for the fields where the
// upstream treats a miss as a bad request (enemy and king-salmonid ids,
// stage ids).
func DecodeToken(raw string) (int, error) {
	if n, ok := decodeTokenInt(raw); ok {
		return n, nil
	}
	return 0, fmt.Errorf("%w: enum token %q", ErrMalformedIdentifier, raw)
}

// DecodeTokenOr decodes an enum token, degrading to the caller's sentinel on
// any miss. Callers pass the per-field fallback constants from enums.go.
func DecodeTokenOr(raw string, fallback int) int {
	if n, ok := decodeTokenInt(raw); ok {
		return n
	}
	return fallback
}

// DecodeTokenPtr decodes an enum token, degrading to nil. Used for nullable
// fields (after-grade, badges).
func DecodeTokenPtr(raw string) *int {
	if n, ok := decodeTokenInt(raw); ok {
		return &n
	}
	return nil
}

// WeaponTable maps the 64-hex asset hash embedded in supplied-weapon image
// URLs back to weapon ids. Built at startup from static reference data and
// refreshed periodically; see services.ResourceService.
type WeaponTable map[string]int

// Lookup scans an asset URL for a weapon hash and resolves it through the
// table. A miss is models.WeaponDummy, never an error; unknown weapons show
// up whenever the game updates before the reference data does.
func (t WeaponTable) Lookup(assetURL string) int {
	hash := weaponHashPattern.FindString(assetURL)
	if hash == "" {
		return models.WeaponDummy
	}
	id, ok := t[hash]
	if !ok {
		return models.WeaponDummy
	}
	return id
}
