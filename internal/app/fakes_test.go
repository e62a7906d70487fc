package app_test

import (
	"context"
	"errors"
	"time"

	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// ---- in-memory availability store ----

type memStore struct {
	records map[string]*domain.AvailabilityRecord
	writes  int
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*domain.AvailabilityRecord{}}
}

func copyRecord(r *domain.AvailabilityRecord) *domain.AvailabilityRecord {
	out := domain.NewAvailabilityRecord(r.PropertyID, r.Month)
	out.UpdatedAt = r.UpdatedAt
	for d, v := range r.Available {
		out.Available[d] = v
	}
	for d, v := range r.Holds {
		out.Holds[d] = v
	}
	for d, v := range r.ExternalBlocks {
		out.ExternalBlocks[d] = v
	}
	return out
}

func (m *memStore) GetRecord(ctx context.Context, propertyID string, ym domain.YearMonth) (*domain.AvailabilityRecord, error) {
	if m.failAll {
		return nil, errors.New("store down")
	}
	r, ok := m.records[domain.RecordKey(propertyID, ym)]
	if !ok {
		return nil, nil
	}
	return copyRecord(r), nil
}

func (m *memStore) ListRecords(ctx context.Context, propertyID string) ([]*domain.AvailabilityRecord, error) {
	if m.failAll {
		return nil, errors.New("store down")
	}
	var out []*domain.AvailabilityRecord
	for _, r := range m.records {
		if r.PropertyID == propertyID {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

func (m *memStore) UpdateRecord(ctx context.Context, propertyID string, ym domain.YearMonth, patch domain.RecordPatch) error {
	if m.failAll {
		return errors.New("store down")
	}
	key := domain.RecordKey(propertyID, ym)
	rec, ok := m.records[key]
	if !ok {
		rec = domain.NewAvailabilityRecord(propertyID, ym)
		m.records[key] = rec
	}
	patch.Apply(rec)
	rec.UpdatedAt = time.Now()
	m.writes++
	return nil
}

// seed installs a record directly, bypassing the patch path.
func (m *memStore) seed(r *domain.AvailabilityRecord) {
	m.records[r.Key()] = r
}

func (m *memStore) record(propertyID string, ym domain.YearMonth) *domain.AvailabilityRecord {
	return m.records[domain.RecordKey(propertyID, ym)]
}

// ---- booking source ----

type fakeBookings struct {
	items []domain.Booking
	err   error
}

func (f *fakeBookings) BookingsForMonth(ctx context.Context, propertyID string, ym domain.YearMonth) ([]domain.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Booking
	for _, b := range f.items {
		if b.PropertyID != propertyID || !b.Participates() {
			continue
		}
		if b.CheckIn.Before(ym.Next()) && !b.CheckOut.Before(ym.First()) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---- feed store ----

type fakeFeeds struct {
	feeds    map[string]domain.ICalFeed
	outcomes map[string]domain.FeedSyncOutcome
}

func newFakeFeeds(fs ...domain.ICalFeed) *fakeFeeds {
	out := &fakeFeeds{feeds: map[string]domain.ICalFeed{}, outcomes: map[string]domain.FeedSyncOutcome{}}
	for _, f := range fs {
		out.feeds[f.ID] = f
	}
	return out
}

func (f *fakeFeeds) GetFeed(ctx context.Context, id string) (domain.ICalFeed, error) {
	fd, ok := f.feeds[id]
	if !ok {
		return domain.ICalFeed{}, domain.ErrNotFound
	}
	return fd, nil
}

func (f *fakeFeeds) ListFeeds(ctx context.Context, propertyID string) ([]domain.ICalFeed, error) {
	var out []domain.ICalFeed
	for _, fd := range f.feeds {
		if fd.PropertyID == propertyID {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *fakeFeeds) ListEnabledFeeds(ctx context.Context) ([]domain.ICalFeed, error) {
	var out []domain.ICalFeed
	for _, fd := range f.feeds {
		if fd.Enabled {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (f *fakeFeeds) CreateFeed(ctx context.Context, fd domain.ICalFeed) error {
	f.feeds[fd.ID] = fd
	return nil
}

func (f *fakeFeeds) SetFeedEnabled(ctx context.Context, id string, enabled bool) error {
	fd, ok := f.feeds[id]
	if !ok {
		return domain.ErrNotFound
	}
	fd.Enabled = enabled
	f.feeds[id] = fd
	return nil
}

func (f *fakeFeeds) RecordFeedSync(ctx context.Context, id string, out domain.FeedSyncOutcome) error {
	fd, ok := f.feeds[id]
	if !ok {
		return domain.ErrNotFound
	}
	fd.LastSyncAt = &out.At
	fd.LastSyncStatus = out.Status
	fd.LastSyncError = out.Error
	fd.LastSyncEventsCount = out.EventsCount
	f.feeds[id] = fd
	f.outcomes[id] = out
	return nil
}

func (f *fakeFeeds) DeleteFeed(ctx context.Context, id string) error {
	delete(f.feeds, id)
	return nil
}

// ---- fetcher, authorizer, price source, cache ----

type fakeFetcher struct {
	events []domain.EventInterval
	err    error
	calls  int
}

func (f *fakeFetcher) FetchEvents(ctx context.Context, url string) ([]domain.EventInterval, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type allowAll struct{}

func (allowAll) CanManage(ctx context.Context, propertyID string) (bool, error) { return true, nil }

type denyAll struct{}

func (denyAll) CanManage(ctx context.Context, propertyID string) (bool, error) { return false, nil }

type fakePrices struct {
	prices map[int]float64
	calls  int
}

func (f *fakePrices) DailyPrices(ctx context.Context, propertyID string, ym domain.YearMonth) (map[int]float64, error) {
	f.calls++
	return f.prices, nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*map[int]float64); ok {
		*d = v.(map[int]float64)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- shared helpers ----

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func june() domain.YearMonth { return domain.YearMonth{Year: 2025, Month: time.June} }
func july() domain.YearMonth { return domain.YearMonth{Year: 2025, Month: time.July} }
