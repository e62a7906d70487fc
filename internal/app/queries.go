package app

import (
	"context"
	"fmt"
	"time"

	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// CalendarService answers calendar view requests. Resolution is recomputed
// from current store state on every read; only the pricing lookup, which is
// external and slow-moving, sits behind the cache.
type CalendarService struct {
	store    domain.AvailabilityStore
	bookings domain.BookingSource
	feeds    domain.FeedStore
	prices   domain.PriceSource
	cache    domain.Cache
	auth     domain.Authorizer
	cacheTTL time.Duration
}

func NewCalendarService(
	store domain.AvailabilityStore,
	bookings domain.BookingSource,
	feeds domain.FeedStore,
	prices domain.PriceSource,
	cache domain.Cache,
	auth domain.Authorizer,
	cacheTTL time.Duration,
) *CalendarService {
	return &CalendarService{
		store:    store,
		bookings: bookings,
		feeds:    feeds,
		prices:   prices,
		cache:    cache,
		auth:     auth,
		cacheTTL: cacheTTL,
	}
}

// ResolveMonth produces the authoritative per-day view for one month.
func (s *CalendarService) ResolveMonth(ctx context.Context, propertyID string, ym domain.YearMonth) (domain.MonthView, error) {
	if err := authorize(ctx, s.auth, propertyID); err != nil {
		return domain.MonthView{}, err
	}

	rec, err := s.store.GetRecord(ctx, propertyID, ym)
	if err != nil {
		return domain.MonthView{}, fmt.Errorf("load record %s: %w", domain.RecordKey(propertyID, ym), err)
	}
	bookings, err := s.bookings.BookingsForMonth(ctx, propertyID, ym)
	if err != nil {
		return domain.MonthView{}, fmt.Errorf("load bookings: %w", err)
	}
	feedNames, err := s.feedNames(ctx, propertyID)
	if err != nil {
		return domain.MonthView{}, fmt.Errorf("load feeds: %w", err)
	}
	prices := s.dailyPrices(ctx, propertyID, ym)

	days, summary := ResolveMonthDays(ym, rec, bookings, func(id string) string { return feedNames[id] }, prices)
	AnnotateSpans(ym, days, bookings)

	return domain.MonthView{
		PropertyID: propertyID,
		Month:      ym.String(),
		Days:       days,
		Summary:    summary,
		PriceRange: priceRange(prices),
	}, nil
}

func (s *CalendarService) feedNames(ctx context.Context, propertyID string) (map[string]string, error) {
	feeds, err := s.feeds.ListFeeds(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(feeds))
	for _, f := range feeds {
		names[f.ID] = f.Name
	}
	return names, nil
}

// dailyPrices is best-effort: a pricing outage degrades the view to
// status-only days rather than failing the whole read.
func (s *CalendarService) dailyPrices(ctx context.Context, propertyID string, ym domain.YearMonth) map[int]float64 {
	if s.prices == nil {
		return nil
	}
	key := fmt.Sprintf("rates:%s:%s", propertyID, ym)
	var cached map[int]float64
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached
		}
	}
	prices, err := s.prices.DailyPrices(ctx, propertyID, ym)
	if err != nil {
		return nil
	}
	if s.cache != nil && prices != nil {
		_ = s.cache.Set(ctx, key, prices, int(s.cacheTTL.Seconds()))
	}
	return prices
}

// authorize short-circuits before any store access. Denials surface as
// ErrAccessDenied, distinct from the guard errors.
func authorize(ctx context.Context, auth domain.Authorizer, propertyID string) error {
	if auth == nil {
		return nil
	}
	ok, err := auth.CanManage(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		return domain.ErrAccessDenied
	}
	return nil
}
