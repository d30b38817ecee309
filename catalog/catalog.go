// Package catalog defines the domain types for the case-referral catalog:
// referral and story items, the urgency scale, and the filter state used to
// narrow the browsed collection.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ID identifies an item. The API serves string identifiers but some legacy
// rows carry numeric ones, so decoding accepts both.
type ID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	return fmt.Errorf("invalid id: %s", data)
}

// Urgency is the triage level of a referral.
type Urgency string

const (
	UrgencyAll    Urgency = "all"
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency validates a user-supplied urgency value.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyAll, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u, nil
	default:
		return "", fmt.Errorf("invalid urgency %q (expected all, high, medium or low)", s)
	}
}

// Item is a browsable catalog entry: a case referral or a shared story.
// Identity is ID; everything but LikeCount is immutable once materialized.
type Item struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary,omitempty"`
	Content     string   `json:"content,omitempty"`
	Location    string   `json:"location,omitempty"`
	CaseType    string   `json:"case_type,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
	AuthorName  string   `json:"author_name,omitempty"`
	CaseTitle   string   `json:"case_title,omitempty"`
	StoryType   string   `json:"story_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	LikeCount   int      `json:"likes_count"`
	PublishedAt string   `json:"published_at,omitempty"`
}

// FilterState holds the current search text and facet selections. Pure data;
// any change triggers a new fetch generation in the collection controller.
type FilterState struct {
	Query     string
	Urgency   Urgency
	CaseTypes []string
}

// Match reports whether an item passes the filter. This is the local
// predicate used when the endpoint serves a flat list and paging and
// filtering happen client-side.
func (f FilterState) Match(it Item) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(it.Title), q) &&
			!strings.Contains(strings.ToLower(it.Summary), q) &&
			!strings.Contains(strings.ToLower(it.Location), q) {
			return false
		}
	}
	if f.Urgency != "" && f.Urgency != UrgencyAll {
		if it.Urgency == "" || !strings.EqualFold(it.Urgency, string(f.Urgency)) {
			return false
		}
	}
	if len(f.CaseTypes) > 0 {
		ct := strings.ToLower(it.CaseType)
		found := false
		for _, want := range f.CaseTypes {
			if strings.ToLower(want) == ct {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter returns the items passing the filter, preserving order.
func (f FilterState) Filter(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
