package app

import (
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// bookingIndex is the per-month day->booking lookup built from the booking
// subsystem's records. Only participating bookings are indexed; stays and
// holds are kept separate because they resolve to different statuses.
type bookingIndex struct {
	stays map[int]*domain.Booking // day -> confirmed/completed booking
	holds map[int]*domain.Booking // day -> on-hold booking
	all   []domain.Booking
}

func newBookingIndex(ym domain.YearMonth, bookings []domain.Booking) *bookingIndex {
	idx := &bookingIndex{
		stays: map[int]*domain.Booking{},
		holds: map[int]*domain.Booking{},
	}
	for i := range bookings {
		b := bookings[i]
		if !b.Participates() {
			continue
		}
		idx.all = append(idx.all, b)
		for day := 1; day <= ym.Days(); day++ {
			if !b.Occupies(ym.Date(day)) {
				continue
			}
			if b.IsStay() {
				idx.stays[day] = &idx.all[len(idx.all)-1]
			} else {
				idx.holds[day] = &idx.all[len(idx.all)-1]
			}
		}
	}
	return idx
}

// ResolveMonthDays combines an availability record (nil means all maps
// empty), the month's participating bookings, a feed-name lookup and an
// optional day->price map into one ResolvedDay per calendar day plus the
// month's summary counts.
//
// The function is pure and total: every day receives exactly one of the
// five statuses, highest priority first:
//
//	on-hold > booked > external-block > manual-block > available
func ResolveMonthDays(
	ym domain.YearMonth,
	rec *domain.AvailabilityRecord,
	bookings []domain.Booking,
	feedName func(feedID string) string,
	prices map[int]float64,
) ([]domain.ResolvedDay, domain.MonthSummary) {
	if rec == nil {
		rec = domain.NewAvailabilityRecord("", ym)
	}
	idx := newBookingIndex(ym, bookings)

	n := ym.Days()
	days := make([]domain.ResolvedDay, 0, n)
	var summary domain.MonthSummary

	for day := 1; day <= n; day++ {
		rd := resolveDay(day, rec, idx, feedName)
		if p, ok := prices[day]; ok {
			price := p
			rd.Price = &price
		}
		summary.Add(rd.Status)
		days = append(days, rd)
	}
	return days, summary
}

func resolveDay(day int, rec *domain.AvailabilityRecord, idx *bookingIndex, feedName func(string) string) domain.ResolvedDay {
	rd := domain.ResolvedDay{Day: day}

	// 1. Hold markers outrank everything, including a stale external block
	// on the same day.
	if ref, held := rec.Holds[day]; held {
		rd.Status = domain.StatusOnHold
		if hb := idx.holds[day]; hb != nil {
			rd.BookingID = hb.ID
			rd.Booking = bookingDetails(hb)
		} else {
			rd.HoldRef = ref
		}
		return rd
	}

	// 2. An internal stay is authoritative over any external marker. The
	// occupancy itself decides; the record's available flag is the booking
	// subsystem's bookkeeping, not a precondition.
	if b := idx.stays[day]; b != nil {
		rd.Status = domain.StatusBooked
		rd.BookingID = b.ID
		rd.Booking = bookingDetails(b)
		return rd
	}

	// 3. External block, unless the day was explicitly re-opened.
	if feedID, marked := rec.ExternalBlocks[day]; marked && !rec.ExplicitlyOpen(day) {
		rd.Status = domain.StatusExternalBlock
		name := ""
		if feedName != nil {
			name = feedName(feedID)
		}
		if name == "" {
			name = domain.GenericFeedLabel
		}
		rd.ExternalFeedName = name
		return rd
	}

	// 4. Manual block: explicit available=false with no other marker. The
	// only status an operator may toggle directly.
	if rec.ExplicitlyBlocked(day) {
		rd.Status = domain.StatusManualBlock
		return rd
	}

	// 5. Default: no key, or explicit available=true.
	rd.Status = domain.StatusAvailable
	return rd
}

func bookingDetails(b *domain.Booking) *domain.BookingDetails {
	return &domain.BookingDetails{
		GuestName: b.GuestName,
		CheckIn:   b.CheckIn,
		CheckOut:  b.CheckOut,
		Source:    b.Source,
		HoldUntil: b.HoldUntil,
	}
}

// priceRange returns the min/max across the month's prices, nil when the
// pricing lookup has no data for the month.
func priceRange(prices map[int]float64) *domain.PriceRange {
	var pr *domain.PriceRange
	for _, p := range prices {
		if pr == nil {
			pr = &domain.PriceRange{Min: p, Max: p}
			continue
		}
		if p < pr.Min {
			pr.Min = p
		}
		if p > pr.Max {
			pr.Max = p
		}
	}
	return pr
}
