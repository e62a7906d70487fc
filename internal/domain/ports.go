package domain

import "context"

// AvailabilityStore reads and writes one AvailabilityRecord per
// (property, month). UpdateRecord must apply the patch against a consistent
// read of the record taken immediately before the write and commit the
// result as one atomic write; there is no compare-and-swap across callers.
type AvailabilityStore interface {
	GetRecord(ctx context.Context, propertyID string, ym YearMonth) (*AvailabilityRecord, error) // nil when absent
	ListRecords(ctx context.Context, propertyID string) ([]*AvailabilityRecord, error)
	UpdateRecord(ctx context.Context, propertyID string, ym YearMonth, patch RecordPatch) error
}

// BookingSource exposes the read-only booking subsystem. BookingsForMonth
// returns participating (non-cancelled) bookings overlapping the month,
// including one whose checkout falls on the month's first day so its tail
// can be rendered.
type BookingSource interface {
	BookingsForMonth(ctx context.Context, propertyID string, ym YearMonth) ([]Booking, error)
}

// FeedStore is the external feed registry and its lifecycle bookkeeping.
type FeedStore interface {
	GetFeed(ctx context.Context, id string) (ICalFeed, error)
	ListFeeds(ctx context.Context, propertyID string) ([]ICalFeed, error)
	ListEnabledFeeds(ctx context.Context) ([]ICalFeed, error)
	CreateFeed(ctx context.Context, f ICalFeed) error
	SetFeedEnabled(ctx context.Context, id string, enabled bool) error
	RecordFeedSync(ctx context.Context, id string, out FeedSyncOutcome) error
	DeleteFeed(ctx context.Context, id string) error
}

// PriceSource is the read-only pricing lookup, consumed purely as a per-day
// annotation; prices never influence status resolution.
type PriceSource interface {
	DailyPrices(ctx context.Context, propertyID string, ym YearMonth) (map[int]float64, error)
}

// FeedFetcher fetches and parses one feed URL into occupying intervals.
// Failures wrap ErrFeedFetch or ErrFeedParse.
type FeedFetcher interface {
	FetchEvents(ctx context.Context, url string) ([]EventInterval, error)
}

// Authorizer is the property-access gate. Every reading and mutating entry
// point checks it before touching the store; a denial is surfaced as
// ErrAccessDenied, never as a guard error.
type Authorizer interface {
	CanManage(ctx context.Context, propertyID string) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
