// utils/hash.go
package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Content hashes are the natural keys for the whole storage model. The
// string layouts below are load-bearing: existing rows are keyed by these
// exact digests, so the formulas must never change.

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// ScheduleHash identifies a schedule by its semantic fields. When either time
// bound is nil the times are omitted from the digest entirely, so every
// private session on the same stage/rule/weapons collapses to one schedule.
// Weapon order is significant and deliberately not sorted.
func ScheduleHash(mode, rule string, startTime, endTime *time.Time, stageID int, weaponList []int) string {
	if startTime == nil || endTime == nil {
		return md5hex(fmt.Sprintf("%s-%s-%d-%s", mode, rule, stageID, joinInts(weaponList)))
	}
	return md5hex(fmt.Sprintf("%s-%s-%d-%d-%d-%s",
		mode, rule, stageID, startTime.UTC().Unix(), endTime.UTC().Unix(), joinInts(weaponList)))
}

// ResultHash identifies a session result by its uuid and play time.
func ResultHash(uuid string, playTime time.Time) string {
	return md5hex(fmt.Sprintf("%d-%s", playTime.UTC().Unix(), strings.ToLower(uuid)))
}

// PlayerHash identifies one player's participation in a session.
func PlayerHash(uuid string, playTime time.Time, nplnUserID string) string {
	return md5hex(fmt.Sprintf("%d-%s-%s", playTime.UTC().Unix(), strings.ToLower(uuid), nplnUserID))
}

// WaveHash identifies one wave of a session. The legacy formula skipped the
// UTC normalization the other three apply; since unix time is absolute the
// digest comes out identical either way, but the formula is kept verbatim so
// stored hashes can never drift.
func WaveHash(uuid string, playTime time.Time, waveID int) string {
	return md5hex(fmt.Sprintf("%d-%s-%d", playTime.Unix(), strings.ToLower(uuid), waveID))
}
