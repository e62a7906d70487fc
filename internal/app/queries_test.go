package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/b-coman/prop-management-sub006/internal/app"
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

func TestResolveMonth_FullView(t *testing.T) {
	ym := june()
	store := newMemStore()
	rec := domain.NewAvailabilityRecord("P", ym)
	rec.Available[7] = false
	rec.ExternalBlocks[5] = "F"
	rec.Available[5] = false
	store.seed(rec)

	bookings := &fakeBookings{items: []domain.Booking{{
		ID: "B1", PropertyID: "P", GuestName: "Maria",
		CheckIn: date(2025, time.June, 10), CheckOut: date(2025, time.June, 13),
		Status: domain.BookingConfirmed,
	}}}
	feeds := newFakeFeeds(domain.ICalFeed{ID: "F", PropertyID: "P", Name: "Airbnb", Enabled: true})
	prices := &fakePrices{prices: map[int]float64{1: 80, 10: 150}}
	cache := &fakeCache{}

	svc := app.NewCalendarService(store, bookings, feeds, prices, cache, allowAll{}, 10*time.Minute)
	view, err := svc.ResolveMonth(context.Background(), "P", ym)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if view.Month != "2025-06" || len(view.Days) != 30 {
		t.Fatalf("view: %s, %d days", view.Month, len(view.Days))
	}
	if view.Summary.Total() != 30 {
		t.Fatalf("summary: %+v", view.Summary)
	}
	if view.Days[4].ExternalFeedName != "Airbnb" {
		t.Fatalf("feed name: %q", view.Days[4].ExternalFeedName)
	}
	if view.Days[9].Position != domain.SpanStart {
		t.Fatalf("span layout missing: %+v", view.Days[9])
	}
	if view.PriceRange == nil || view.PriceRange.Min != 80 || view.PriceRange.Max != 150 {
		t.Fatalf("price range: %+v", view.PriceRange)
	}

	// Second read comes from the price cache.
	if _, err := svc.ResolveMonth(context.Background(), "P", ym); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if prices.calls != 1 {
		t.Fatalf("price source called %d times, want 1", prices.calls)
	}
}

func TestResolveMonth_AbsentRecord(t *testing.T) {
	svc := app.NewCalendarService(newMemStore(), &fakeBookings{}, newFakeFeeds(), nil, nil, allowAll{}, time.Minute)
	view, err := svc.ResolveMonth(context.Background(), "P", june())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Summary.Available != 30 {
		t.Fatalf("absent record should resolve fully available: %+v", view.Summary)
	}
	if view.PriceRange != nil {
		t.Fatalf("no pricing source, no range")
	}
}

func TestResolveMonth_AccessDenied(t *testing.T) {
	store := newMemStore()
	svc := app.NewCalendarService(store, &fakeBookings{}, newFakeFeeds(), nil, nil, denyAll{}, time.Minute)
	_, err := svc.ResolveMonth(context.Background(), "P", june())
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("err = %v", err)
	}
}
