// Package authstate holds the persisted authorization document: the current
// OAuth access token, its expiry and the extraction watermark.
package authstate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

const (
	KeyAccessToken    = "access_token"
	KeyExpiresAt      = "expires_at"
	KeyLastActivityDT = "last_activity_dt"
)

// State is the in-memory form of the authorization document.
// AccessToken and ExpiresAt change together; LastActivityDT only moves forward.
type State struct {
	AccessToken    string
	ExpiresAt      time.Time
	LastActivityDT time.Time

	// extra holds keys this system does not own, written back untouched.
	extra map[string]json.RawMessage
}

// Expired reports whether the access token is past its expiry. A token that
// expires exactly at now is still considered valid.
func (s *State) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.extra = maps.Clone(s.extra)
	return &c
}

// Decode validates data against the document schema and parses it.
func Decode(data []byte) (*State, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}

	s := &State{}
	if err := json.Unmarshal(raw[KeyAccessToken], &s.AccessToken); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyAccessToken, err)
	}

	expiresAt, err := parseEpoch(raw[KeyExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyExpiresAt, err)
	}
	s.ExpiresAt = expiresAt

	var dt string
	if err := json.Unmarshal(raw[KeyLastActivityDT], &dt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyLastActivityDT, err)
	}
	if s.LastActivityDT, err = ParseTimestamp(dt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyLastActivityDT, err)
	}

	delete(raw, KeyAccessToken)
	delete(raw, KeyExpiresAt)
	delete(raw, KeyLastActivityDT)
	if len(raw) > 0 {
		s.extra = raw
	}
	return s, nil
}

// Encode renders the document with sorted keys and two-space indentation, so
// an unchanged state always encodes to the same bytes.
func (s *State) Encode() ([]byte, error) {
	doc := make(map[string]any, len(s.extra)+3)
	for k, v := range s.extra {
		doc[k] = v
	}
	doc[KeyAccessToken] = s.AccessToken
	doc[KeyExpiresAt] = strconv.FormatInt(s.ExpiresAt.Unix(), 10)
	doc[KeyLastActivityDT] = FormatTimestamp(s.LastActivityDT)
	return json.MarshalIndent(doc, "", "  ")
}

// FormatTimestamp is the canonical watermark representation: RFC 3339 in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 timestamps (with "Z" or a numeric offset)
// and naive ISO-8601 timestamps, which are read as UTC.
func ParseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}

// parseEpoch reads epoch seconds stored either as a string or a JSON number.
func parseEpoch(raw json.RawMessage) (time.Time, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return time.Time{}, err
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}

	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return time.Time{}, fmt.Errorf("invalid epoch seconds %q", s)
		}
		secs = int64(f)
	}
	return time.Unix(secs, 0).UTC(), nil
}
