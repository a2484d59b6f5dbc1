package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
)

// Time decodes the monitor's timestamps. The server emits ISO 8601 without
// a zone for UTC values, RFC 3339 otherwise, and null for "never".
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Keyword is a watched keyword on a website.
type Keyword struct {
	ID        int64  `json:"id"`
	Keyword   string `json:"keyword"`
	IsActive  bool   `json:"is_active"`
	CreatedAt Time   `json:"created_at"`
}

// Website is a monitored target.
type Website struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	CheckInterval int       `json:"check_interval"`
	IsActive      bool      `json:"is_active"`
	LastChecked   Time      `json:"last_checked"`
	CreatedAt     Time      `json:"created_at"`
	Keywords      []Keyword `json:"keywords"`
}

// KeywordTexts returns the keyword strings.
func (w Website) KeywordTexts() []string {
	out := make([]string, 0, len(w.Keywords))
	for _, k := range w.Keywords {
		out = append(out, k.Keyword)
	}
	return out
}

// WebsiteInput is the body for create and update requests.
type WebsiteInput struct {
	Name          string   `json:"name,omitempty"`
	URL           string   `json:"url,omitempty"`
	CheckInterval int      `json:"check_interval,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// ChangeRecord is one detected change of a website.
type ChangeRecord struct {
	ID               int64  `json:"id"`
	WebsiteID        int64  `json:"website_id"`
	ChangeType       string `json:"change_type"`
	DiffContent      string `json:"diff_content"`
	MatchedKeywords  string `json:"matched_keywords"`
	NotificationSent bool   `json:"notification_sent"`
	CreatedAt        Time   `json:"created_at"`
}

// ChangePage is one page of change records.
type ChangePage struct {
	Changes     []ChangeRecord `json:"changes"`
	Total       int            `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
}

// ChangeQuery selects a page of change records. Zero values use the
// server's defaults.
type ChangeQuery struct {
	Page      int
	PerPage   int
	WebsiteID int64
}

// StatusReport is the body of GET /api/status. Any JSON is accepted; the
// accessors read the fields the monitor is known to send.
type StatusReport struct {
	raw   []byte
	value *jason.Value
}

func newStatusReport(raw []byte) (*StatusReport, error) {
	v, err := jason.NewValueFromBytes(raw)
	if err != nil {
		return nil, err
	}
	return &StatusReport{raw: raw, value: v}, nil
}

// Raw returns the response body as received.
func (s *StatusReport) Raw() []byte {
	return s.raw
}

func (s *StatusReport) String() string {
	return string(bytes.TrimSpace(s.raw))
}

func (s *StatusReport) int(key string) (int64, bool) {
	obj, err := s.value.Object()
	if err != nil {
		return 0, false
	}
	n, err := obj.GetInt64(key)
	if err != nil {
		return 0, false
	}
	return n, true
}

// TotalWebsites is the number of configured websites.
func (s *StatusReport) TotalWebsites() (int64, bool) { return s.int("total_websites") }

// ActiveWebsites is the number of websites being monitored.
func (s *StatusReport) ActiveWebsites() (int64, bool) { return s.int("active_websites") }

// RecentChanges is the number of changes in the last day.
func (s *StatusReport) RecentChanges() (int64, bool) { return s.int("recent_changes") }

// State is the server's self-reported state ("running"), or "".
func (s *StatusReport) State() string {
	obj, err := s.value.Object()
	if err != nil {
		return ""
	}
	state, err := obj.GetString("status")
	if err != nil {
		return ""
	}
	return state
}

// CheckResult is the validated outcome of POST /api/websites/{id}/check.
// It is either CheckSucceeded or CheckFailed.
type CheckResult interface {
	checkResult()
}

// CheckSucceeded means the server ran the check and reported success.
type CheckSucceeded struct {
	Message string
}

// CheckFailed means the server answered but the check did not succeed.
// Error is the server's explanation, empty when it gave none.
type CheckFailed struct {
	StatusCode int
	Error      string
}

func (CheckSucceeded) checkResult() {}
func (CheckFailed) checkResult()    {}
