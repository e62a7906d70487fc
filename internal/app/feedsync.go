package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// SyncService merges external calendar feeds into the External-block subset
// of the availability store and manages feed lifecycle. The merge is
// idempotent and only ever reconciles a feed against its own prior markers;
// another feed's blocks, holds and bookings are never touched.
type SyncService struct {
	store   domain.AvailabilityStore
	feeds   domain.FeedStore
	fetcher domain.FeedFetcher
	auth    domain.Authorizer
	now     func() time.Time
}

func NewSyncService(store domain.AvailabilityStore, feeds domain.FeedStore, fetcher domain.FeedFetcher, auth domain.Authorizer) *SyncService {
	return &SyncService{store: store, feeds: feeds, fetcher: fetcher, auth: auth, now: time.Now}
}

// AddFeed registers a new feed in pending state.
func (s *SyncService) AddFeed(ctx context.Context, propertyID, name, url string) (domain.ICalFeed, error) {
	if err := authorize(ctx, s.auth, propertyID); err != nil {
		return domain.ICalFeed{}, err
	}
	if name == "" || url == "" {
		return domain.ICalFeed{}, fmt.Errorf("feed name and url are required")
	}
	f := domain.ICalFeed{
		ID:             uuid.NewString(),
		PropertyID:     propertyID,
		Name:           name,
		URL:            url,
		Enabled:        true,
		LastSyncStatus: domain.FeedSyncPending,
	}
	if err := s.feeds.CreateFeed(ctx, f); err != nil {
		return domain.ICalFeed{}, fmt.Errorf("create feed: %w", err)
	}
	log.Info().Str("property", propertyID).Str("feed", f.ID).Str("name", name).Msg("feed added")
	return f, nil
}

func (s *SyncService) ListFeeds(ctx context.Context, propertyID string) ([]domain.ICalFeed, error) {
	if err := authorize(ctx, s.auth, propertyID); err != nil {
		return nil, err
	}
	return s.feeds.ListFeeds(ctx, propertyID)
}

func (s *SyncService) SetFeedEnabled(ctx context.Context, feedID string, enabled bool) error {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.auth, feed.PropertyID); err != nil {
		return err
	}
	return s.feeds.SetFeedEnabled(ctx, feedID, enabled)
}

// SyncFeed fetches the feed and merges its events. Fetch and parse failures
// are recorded on the feed's sync-status fields and no partial merge
// happens; store failures during the merge propagate to the caller
// un-retried, since a retry of the whole sync is safe.
func (s *SyncService) SyncFeed(ctx context.Context, feedID string) (domain.MergeResult, error) {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return domain.MergeResult{}, err
	}
	if err := authorize(ctx, s.auth, feed.PropertyID); err != nil {
		return domain.MergeResult{}, err
	}
	if !feed.Enabled {
		return domain.MergeResult{}, domain.ErrFeedDisabled
	}

	events, err := s.fetcher.FetchEvents(ctx, feed.URL)
	if err != nil {
		_ = s.feeds.RecordFeedSync(ctx, feedID, domain.FeedSyncOutcome{
			At:     s.now(),
			Status: domain.FeedSyncError,
			Error:  err.Error(),
		})
		log.Warn().Str("feed", feedID).Err(err).Msg("feed sync failed")
		return domain.MergeResult{}, err
	}

	res, err := s.Merge(ctx, feed.PropertyID, feedID, events)
	if err != nil {
		return res, err
	}

	if err := s.feeds.RecordFeedSync(ctx, feedID, domain.FeedSyncOutcome{
		At:          s.now(),
		Status:      domain.FeedSyncSuccess,
		EventsCount: res.EventsFound,
	}); err != nil {
		return res, fmt.Errorf("record sync outcome: %w", err)
	}
	log.Info().
		Str("feed", feedID).
		Int("events", res.EventsFound).
		Int("blocked", res.DatesBlocked).
		Int("released", res.DatesReleased).
		Msg("feed synced")
	return res, nil
}

// Merge reconciles one feed's parsed events against the store.
//
// Days newly covered get an external marker plus an explicit available=false;
// days this feed previously marked but no longer covers are released. A
// release clears only this feed's marker and re-opens the day unless a hold
// still claims it (a day can be externally blocked and held at once in the
// stale-data window). Running the merge twice with the same events is a
// no-op the second time.
func (s *SyncService) Merge(ctx context.Context, propertyID, feedID string, events []domain.EventInterval) (domain.MergeResult, error) {
	res := domain.MergeResult{EventsFound: len(events)}

	coverage := expandEvents(events)

	records, err := s.store.ListRecords(ctx, propertyID)
	if err != nil {
		return res, fmt.Errorf("list records: %w", err)
	}
	recordsByMonth := make(map[domain.YearMonth]*domain.AvailabilityRecord, len(records))
	for _, rec := range records {
		recordsByMonth[rec.Month] = rec
	}

	// Months to reconcile: everything the new events cover plus every month
	// where this feed left a marker.
	months := map[domain.YearMonth]bool{}
	for ym := range coverage {
		months[ym] = true
	}
	for ym, rec := range recordsByMonth {
		for _, fid := range rec.ExternalBlocks {
			if fid == feedID {
				months[ym] = true
				break
			}
		}
	}

	for ym := range months {
		rec := recordsByMonth[ym]
		if rec == nil {
			rec = domain.NewAvailabilityRecord(propertyID, ym)
		}
		var patch domain.RecordPatch

		for day := range coverage[ym] {
			if rec.ExternalBlocks[day] == feedID {
				continue // already ours; keeps the merge idempotent
			}
			patch.MarkExternal(day, feedID)
			patch.MarkAvailable(day, false)
			res.DatesBlocked++
		}

		for day, fid := range rec.ExternalBlocks {
			if fid != feedID {
				continue
			}
			if _, covered := coverage[ym][day]; covered {
				continue
			}
			// Upstream removed or shortened the event: release our marker.
			patch.ClearExternal = append(patch.ClearExternal, day)
			if _, held := rec.Holds[day]; !held {
				patch.MarkAvailable(day, true)
			}
			res.DatesReleased++
		}

		if patch.Empty() {
			continue
		}
		if err := s.store.UpdateRecord(ctx, propertyID, ym, patch); err != nil {
			return res, fmt.Errorf("write record %s: %w", ym, err)
		}
	}
	return res, nil
}

// DeleteFeed removes the feed and releases every day still marked with its
// id, scanning the property's month records. Returns the released count.
func (s *SyncService) DeleteFeed(ctx context.Context, feedID string) (int, error) {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return 0, err
	}
	if err := authorize(ctx, s.auth, feed.PropertyID); err != nil {
		return 0, err
	}

	// Same release pass as a merge with zero events.
	res, err := s.Merge(ctx, feed.PropertyID, feedID, nil)
	if err != nil {
		return res.DatesReleased, err
	}
	if err := s.feeds.DeleteFeed(ctx, feedID); err != nil {
		return res.DatesReleased, fmt.Errorf("delete feed: %w", err)
	}
	log.Info().Str("feed", feedID).Int("released", res.DatesReleased).Msg("feed deleted")
	return res.DatesReleased, nil
}

// expandEvents turns event intervals (start inclusive, end exclusive) into
// per-month day sets. A zero-length or inverted interval still occupies its
// start day.
func expandEvents(events []domain.EventInterval) map[domain.YearMonth]map[int]struct{} {
	coverage := map[domain.YearMonth]map[int]struct{}{}
	for _, ev := range events {
		start := dateOnly(ev.Start)
		end := dateOnly(ev.End)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			ym := domain.YearMonthOf(d)
			if coverage[ym] == nil {
				coverage[ym] = map[int]struct{}{}
			}
			coverage[ym][d.Day()] = struct{}{}
		}
	}
	return coverage
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
