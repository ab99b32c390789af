package activity

import (
	"encoding/json"
	"time"
)

// Snapshot is the session record persisted across reloads. Invariant:
// Active implies LoginTime and LastActivity are set.
type Snapshot struct {
	SessionID       string
	UserID          int64
	UserName        string
	LoginTime       time.Time
	LastActivity    time.Time
	DurationMinutes int
	Active          bool
}

// persistedSnapshot is the storage shape: timestamps as ISO-8601
// strings, null when the session is inactive.
type persistedSnapshot struct {
	SessionID       string  `json:"session_id"`
	UserID          int64   `json:"user_id"`
	UserName        string  `json:"user_name"`
	LoginTime       *string `json:"login_time"`
	LastActivity    *string `json:"last_activity"`
	DurationMinutes int     `json:"session_duration"`
	Active          bool    `json:"is_active"`
}

// encodeSnapshot serializes a snapshot for storage.
func encodeSnapshot(s Snapshot) (string, error) {
	p := persistedSnapshot{
		SessionID:       s.SessionID,
		UserID:          s.UserID,
		UserName:        s.UserName,
		DurationMinutes: s.DurationMinutes,
		Active:          s.Active,
	}
	if !s.LoginTime.IsZero() {
		v := s.LoginTime.UTC().Format(time.RFC3339Nano)
		p.LoginTime = &v
	}
	if !s.LastActivity.IsZero() {
		v := s.LastActivity.UTC().Format(time.RFC3339Nano)
		p.LastActivity = &v
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeSnapshot re-parses a stored snapshot. Corrupt data (bad JSON,
// unparseable timestamps) yields an error; callers treat that as "no
// snapshot".
func decodeSnapshot(raw string) (Snapshot, error) {
	var p persistedSnapshot
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		SessionID:       p.SessionID,
		UserID:          p.UserID,
		UserName:        p.UserName,
		DurationMinutes: p.DurationMinutes,
		Active:          p.Active,
	}
	if p.LoginTime != nil {
		t, err := time.Parse(time.RFC3339Nano, *p.LoginTime)
		if err != nil {
			return Snapshot{}, err
		}
		s.LoginTime = t
	}
	if p.LastActivity != nil {
		t, err := time.Parse(time.RFC3339Nano, *p.LastActivity)
		if err != nil {
			return Snapshot{}, err
		}
		s.LastActivity = t
	}
	return s, nil
}
