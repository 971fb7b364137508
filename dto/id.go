package dto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedIdentifier is returned when an opaque identifier does not match
// the expected grammar. Always fatal to the containing request.
var ErrMalformedIdentifier = errors.New("malformed identifier")

const idTimeLayout = "20060102T150405"

// jstOffset is the hardcoded compatibility shim the legacy codec applies:
// +9h on decode, -9h on encode. The direction must match the upstream client
// exactly; flipping it skews every stored timestamp by 18 hours.
const jstOffset = 9 * time.Hour

var (
	resultIDPattern = regexp.MustCompile(`(\w*)-(\w)-(\w{20}):([\dT]{15})_([0-9a-fA-F-]{36})`)
	playerIDPattern = regexp.MustCompile(`(\w*)-(\w)-(\w{20}):([\dT]{15})_([0-9a-fA-F-]{36}):(\w)-(\w{20})`)
)

// ResultID is the decoded form of the opaque session-result identifier:
// base64 of `kind-prefix-nplnUserId:playTime_uuid`.
type ResultID struct {
	Kind       string    `json:"type"`
	Prefix     string    `json:"prefix"`
	NplnUserID string    `json:"nplnUserId"`
	PlayTime   time.Time `json:"playTime"` // UTC
	UUID       string    `json:"uuid"`     // canonical uppercase
}

// PlayerID is the decoded form of the opaque participation identifier:
// base64 of `kind-prefix-hostNplnUserId:playTime_uuid:suffix-nplnUserId`.
// The host id is the submitting player's; the trailing id is the participant.
type PlayerID struct {
	Kind           string    `json:"type"`
	Prefix         string    `json:"prefix"`
	HostNplnUserID string    `json:"hostNplnUserId"`
	PlayTime       time.Time `json:"playTime"`
	UUID           string    `json:"uuid"`
	Suffix         string    `json:"suffix"`
	NplnUserID     string    `json:"nplnUserId"`
}

// IsMyself reports whether the participant is the submitting player.
func (p *PlayerID) IsMyself() bool {
	return p.NplnUserID == p.HostNplnUserID
}

func decodeIDParts(raw string, pattern *regexp.Regexp, groups int) ([]string, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not base64", ErrMalformedIdentifier, raw)
	}
	match := pattern.FindStringSubmatch(string(decoded))
	if match == nil || len(match) != groups+1 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedIdentifier, string(decoded))
	}
	return match[1:], nil
}

func parseIDTime(value string) (time.Time, error) {
	t, err := time.ParseInLocation(idTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedIdentifier, value)
	}
	return t, nil
}

func parseIDUUID(value string) (string, error) {
	if _, err := uuid.Parse(value); err != nil {
		return "", fmt.Errorf("%w: bad uuid %q", ErrMalformedIdentifier, value)
	}
	return strings.ToUpper(value), nil
}

// DecodeResultID decodes a current-generation result identifier. The embedded
// timestamp is UTC; the UUID is re-encoded uppercase no matter how the client
// cased it.
func DecodeResultID(raw string) (*ResultID, error) {
	m, err := decodeIDParts(raw, resultIDPattern, 5)
	if err != nil {
		return nil, err
	}
	playTime, err := parseIDTime(m[3])
	if err != nil {
		return nil, err
	}
	uid, err := parseIDUUID(m[4])
	if err != nil {
		return nil, err
	}
	return &ResultID{Kind: m[0], Prefix: m[1], NplnUserID: m[2], PlayTime: playTime, UUID: uid}, nil
}

// DecodeLegacyResultID decodes a first-generation identifier. The embedded
// timestamp is JST wall clock; the legacy shim adds jstOffset on decode.
func DecodeLegacyResultID(raw string) (*ResultID, error) {
	id, err := DecodeResultID(raw)
	if err != nil {
		return nil, err
	}
	id.PlayTime = id.PlayTime.Add(jstOffset)
	return id, nil
}

// RawValue re-encodes the identifier into its original wire form. UUIDs go
// out lowercase, which is how the client ships them.
func (r *ResultID) RawValue() string {
	plain := fmt.Sprintf("%s-%s-%s:%s_%s",
		r.Kind, r.Prefix, r.NplnUserID,
		r.PlayTime.UTC().Format(idTimeLayout), strings.ToLower(r.UUID))
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// LegacyRawValue re-encodes with the legacy shim (subtracts jstOffset) and
// keeps the UUID in its canonical uppercase form, as the old clients did.
func (r *ResultID) LegacyRawValue() string {
	plain := fmt.Sprintf("%s-%s-%s:%s_%s",
		r.Kind, r.Prefix, r.NplnUserID,
		r.PlayTime.Add(-jstOffset).UTC().Format(idTimeLayout), r.UUID)
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// DecodePlayerID decodes a current-generation participation identifier.
func DecodePlayerID(raw string) (*PlayerID, error) {
	m, err := decodeIDParts(raw, playerIDPattern, 7)
	if err != nil {
		return nil, err
	}
	playTime, err := parseIDTime(m[3])
	if err != nil {
		return nil, err
	}
	uid, err := parseIDUUID(m[4])
	if err != nil {
		return nil, err
	}
	return &PlayerID{
		Kind:           m[0],
		Prefix:         m[1],
		HostNplnUserID: m[2],
		PlayTime:       playTime,
		UUID:           uid,
		Suffix:         m[5],
		NplnUserID:     m[6],
	}, nil
}

// DecodeLegacyPlayerID applies the legacy JST shim on top of DecodePlayerID.
func DecodeLegacyPlayerID(raw string) (*PlayerID, error) {
	p, err := DecodePlayerID(raw)
	if err != nil {
		return nil, err
	}
	p.PlayTime = p.PlayTime.Add(jstOffset)
	return p, nil
}

// RawValue re-encodes the participation identifier into its wire form.
func (p *PlayerID) RawValue() string {
	plain := fmt.Sprintf("%s-%s-%s:%s_%s:%s-%s",
		p.Kind, p.Prefix, p.HostNplnUserID,
		p.PlayTime.UTC().Format(idTimeLayout), strings.ToLower(p.UUID),
		p.Suffix, p.NplnUserID)
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// UID is the short per-player identifier used by the flat wire format:
// `playTime:nplnUserId`.
func (p *PlayerID) UID() string {
	return fmt.Sprintf("%s:%s", p.PlayTime.UTC().Format(idTimeLayout), p.NplnUserID)
}
