package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/b-coman/prop-management-sub006/internal/app"
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

func TestMerge_EndExclusiveAndIdempotent(t *testing.T) {
	// One event 2025-06-20 .. 2025-06-22 occupies days 20 and 21 only.
	store := newMemStore()
	svc := app.NewSyncService(store, newFakeFeeds(), &fakeFetcher{}, allowAll{})
	ctx := context.Background()
	events := []domain.EventInterval{{Start: date(2025, time.June, 20), End: date(2025, time.June, 22)}}

	res, err := svc.Merge(ctx, "P", "F", events)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.EventsFound != 1 || res.DatesBlocked != 2 || res.DatesReleased != 0 {
		t.Fatalf("first merge: %+v", res)
	}

	rec := store.record("P", june())
	for _, d := range []int{20, 21} {
		if rec.ExternalBlocks[d] != "F" || !rec.ExplicitlyBlocked(d) {
			t.Fatalf("day %d not marked: %+v", d, rec)
		}
	}
	if _, ok := rec.ExternalBlocks[22]; ok {
		t.Fatalf("end date is exclusive; day 22 must not be marked")
	}

	// Second run with the identical event list is a no-op.
	res2, err := svc.Merge(ctx, "P", "F", events)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res2.DatesBlocked != 0 || res2.DatesReleased != 0 {
		t.Fatalf("second merge should be a no-op: %+v", res2)
	}
}

func TestMerge_ReleasesStaleDays(t *testing.T) {
	store := newMemStore()
	svc := app.NewSyncService(store, newFakeFeeds(), &fakeFetcher{}, allowAll{})
	ctx := context.Background()

	full := []domain.EventInterval{{Start: date(2025, time.June, 10), End: date(2025, time.June, 14)}}
	if _, err := svc.Merge(ctx, "P", "F", full); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Upstream shortened the event by one night.
	shorter := []domain.EventInterval{{Start: date(2025, time.June, 10), End: date(2025, time.June, 13)}}
	res, err := svc.Merge(ctx, "P", "F", shorter)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.DatesBlocked != 0 || res.DatesReleased != 1 {
		t.Fatalf("res = %+v", res)
	}

	rec := store.record("P", june())
	if _, ok := rec.ExternalBlocks[13]; ok {
		t.Fatalf("day 13 marker should be released")
	}
	if v, ok := rec.Available[13]; !ok || !v {
		t.Fatalf("day 13 should be explicitly re-opened: %v,%v", v, ok)
	}
	if rec.ExternalBlocks[12] != "F" {
		t.Fatalf("day 12 must stay marked")
	}
}

func TestMerge_ReleaseKeepsHeldDayBlocked(t *testing.T) {
	// A day blocked by feed F and independently held: removing F's coverage
	// clears the marker, but the hold keeps the day unavailable.
	ym := june()
	store := newMemStore()
	rec := domain.NewAvailabilityRecord("P", ym)
	rec.ExternalBlocks[18] = "F"
	rec.Holds[18] = "hold-z"
	rec.Available[18] = false
	store.seed(rec)

	svc := app.NewSyncService(store, newFakeFeeds(), &fakeFetcher{}, allowAll{})
	res, err := svc.Merge(context.Background(), "P", "F", nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.DatesReleased != 1 {
		t.Fatalf("res = %+v", res)
	}

	got := store.record("P", ym)
	if _, ok := got.ExternalBlocks[18]; ok {
		t.Fatalf("marker should be gone")
	}
	if !got.ExplicitlyBlocked(18) {
		t.Fatalf("held day must remain unavailable")
	}
	days, _ := app.ResolveMonthDays(ym, got, nil, nil, nil)
	if days[17].Status != domain.StatusOnHold {
		t.Fatalf("day 18 should resolve on-hold, got %q", days[17].Status)
	}
}

func TestMerge_NeverTouchesOtherFeedsMarkers(t *testing.T) {
	ym := june()
	store := newMemStore()
	rec := domain.NewAvailabilityRecord("P", ym)
	rec.ExternalBlocks[3] = "other-feed"
	rec.Available[3] = false
	store.seed(rec)

	svc := app.NewSyncService(store, newFakeFeeds(), &fakeFetcher{}, allowAll{})
	res, err := svc.Merge(context.Background(), "P", "F", nil)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.DatesReleased != 0 {
		t.Fatalf("must not release another feed's day: %+v", res)
	}
	if store.record("P", ym).ExternalBlocks[3] != "other-feed" {
		t.Fatalf("other feed's marker must survive")
	}
}

func TestMerge_SpansMonths(t *testing.T) {
	store := newMemStore()
	svc := app.NewSyncService(store, newFakeFeeds(), &fakeFetcher{}, allowAll{})

	events := []domain.EventInterval{{Start: date(2025, time.June, 29), End: date(2025, time.July, 3)}}
	res, err := svc.Merge(context.Background(), "P", "F", events)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	// Nights 29,30 in June and 1,2 in July.
	if res.DatesBlocked != 4 {
		t.Fatalf("res = %+v", res)
	}
	if store.record("P", june()).ExternalBlocks[30] != "F" {
		t.Fatalf("June 30 missing")
	}
	if store.record("P", july()).ExternalBlocks[2] != "F" {
		t.Fatalf("July 2 missing")
	}
}

func TestSyncFeed_SuccessBookkeeping(t *testing.T) {
	feeds := newFakeFeeds(domain.ICalFeed{
		ID: "F", PropertyID: "P", Name: "Airbnb", URL: "https://example.com/cal.ics",
		Enabled: true, LastSyncStatus: domain.FeedSyncPending,
	})
	fetcher := &fakeFetcher{events: []domain.EventInterval{
		{Start: date(2025, time.June, 20), End: date(2025, time.June, 22)},
	}}
	store := newMemStore()
	svc := app.NewSyncService(store, feeds, fetcher, allowAll{})

	res, err := svc.SyncFeed(context.Background(), "F")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.EventsFound != 1 || res.DatesBlocked != 2 {
		t.Fatalf("res = %+v", res)
	}
	f := feeds.feeds["F"]
	if f.LastSyncStatus != domain.FeedSyncSuccess || f.LastSyncEventsCount != 1 || f.LastSyncAt == nil {
		t.Fatalf("feed bookkeeping: %+v", f)
	}
}

func TestSyncFeed_FetchErrorSkipsMerge(t *testing.T) {
	feeds := newFakeFeeds(domain.ICalFeed{
		ID: "F", PropertyID: "P", URL: "https://example.com/cal.ics", Enabled: true,
	})
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: connection refused", domain.ErrFeedFetch)}
	store := newMemStore()
	svc := app.NewSyncService(store, feeds, fetcher, allowAll{})

	_, err := svc.SyncFeed(context.Background(), "F")
	if !errors.Is(err, domain.ErrFeedFetch) {
		t.Fatalf("err = %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("no partial merge may happen on fetch failure")
	}
	f := feeds.feeds["F"]
	if f.LastSyncStatus != domain.FeedSyncError || f.LastSyncError == "" {
		t.Fatalf("feed error bookkeeping: %+v", f)
	}
}

func TestSyncFeed_Disabled(t *testing.T) {
	feeds := newFakeFeeds(domain.ICalFeed{ID: "F", PropertyID: "P", Enabled: false})
	svc := app.NewSyncService(newMemStore(), feeds, &fakeFetcher{}, allowAll{})
	_, err := svc.SyncFeed(context.Background(), "F")
	if !errors.Is(err, domain.ErrFeedDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestDeleteFeed_ReleasesItsDays(t *testing.T) {
	// Feed F reported 2025-06-20..22: merge blocks days 20 and 21; deleting
	// the feed releases both, assuming no hold or booking on them.
	feeds := newFakeFeeds(domain.ICalFeed{ID: "F", PropertyID: "P", Enabled: true})
	store := newMemStore()
	svc := app.NewSyncService(store, feeds, &fakeFetcher{}, allowAll{})
	ctx := context.Background()

	events := []domain.EventInterval{{Start: date(2025, time.June, 20), End: date(2025, time.June, 22)}}
	res, err := svc.Merge(ctx, "P", "F", events)
	if err != nil || res.DatesBlocked != 2 {
		t.Fatalf("merge: %v %+v", err, res)
	}

	released, err := svc.DeleteFeed(ctx, "F")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if released != 2 {
		t.Fatalf("released = %d, want 2", released)
	}
	if _, err := feeds.GetFeed(ctx, "F"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("feed should be gone, got %v", err)
	}

	days, _ := app.ResolveMonthDays(june(), store.record("P", june()), nil, nil, nil)
	for _, d := range []int{20, 21} {
		if days[d-1].Status != domain.StatusAvailable {
			t.Fatalf("day %d should be available again, got %q", d, days[d-1].Status)
		}
	}
}

func TestAddFeed(t *testing.T) {
	feeds := newFakeFeeds()
	svc := app.NewSyncService(newMemStore(), feeds, &fakeFetcher{}, allowAll{})

	f, err := svc.AddFeed(context.Background(), "P", "Booking.com", "https://example.com/feed.ics")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if f.ID == "" || !f.Enabled || f.LastSyncStatus != domain.FeedSyncPending {
		t.Fatalf("feed: %+v", f)
	}
	if _, err := svc.AddFeed(context.Background(), "P", "", ""); err == nil {
		t.Fatalf("expected validation error")
	}
}
