package domain

import "time"

type FeedSyncStatus string

const (
	FeedSyncPending FeedSyncStatus = "pending"
	FeedSyncSuccess FeedSyncStatus = "success"
	FeedSyncError   FeedSyncStatus = "error"
)

// ICalFeed is one externally-synced calendar source for a property.
type ICalFeed struct {
	ID                  string         `json:"id"`
	PropertyID          string         `json:"propertyID"`
	Name                string         `json:"name"`
	URL                 string         `json:"url"`
	Enabled             bool           `json:"enabled"`
	LastSyncAt          *time.Time     `json:"lastSyncAt,omitempty"`
	LastSyncStatus      FeedSyncStatus `json:"lastSyncStatus"`
	LastSyncError       string         `json:"lastSyncError,omitempty"`
	LastSyncEventsCount int            `json:"lastSyncEventsCount"`
}

// FeedSyncOutcome is the bookkeeping written back to a feed after a sync
// attempt, successful or not.
type FeedSyncOutcome struct {
	At          time.Time
	Status      FeedSyncStatus
	Error       string
	EventsCount int
}

// EventInterval is one occupying event as returned by the feed fetch/parse
// collaborator. End is exclusive, mirroring booking-night semantics.
type EventInterval struct {
	Start time.Time
	End   time.Time
}

// MergeResult reports one feed merge: events parsed, days newly marked by
// this feed, and stale days released.
type MergeResult struct {
	EventsFound   int `json:"eventsFound"`
	DatesBlocked  int `json:"datesBlocked"`
	DatesReleased int `json:"datesReleased"`
}
