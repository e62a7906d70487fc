package app

import (
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// AnnotateSpans decorates resolved days, in place, with visual span
// boundaries and checkout tails so the renderer can draw contiguous bars
// that wrap across week rows or abut a back-to-back booking.
func AnnotateSpans(ym domain.YearMonth, days []domain.ResolvedDay, bookings []domain.Booking) {
	byID := make(map[string]domain.Booking, len(bookings))
	for _, b := range bookings {
		if b.Participates() {
			byID[b.ID] = b
		}
	}

	for i := range days {
		rd := &days[i]
		if rd.Status != domain.StatusBooked && rd.Status != domain.StatusOnHold {
			continue
		}
		b, ok := byID[rd.BookingID]
		if !ok {
			// Bare hold marker with no backing booking: each held day
			// stands alone.
			rd.Position = domain.SpanSingle
			continue
		}
		date := ym.Date(rd.Day)
		isStart := date.Equal(b.CheckIn)
		isEnd := date.Equal(b.LastNight())
		switch {
		case isStart && isEnd:
			rd.Position = domain.SpanSingle
		case isStart:
			rd.Position = domain.SpanStart
		case isEnd:
			rd.Position = domain.SpanEnd
		default:
			rd.Position = domain.SpanMiddle
		}
	}

	// Checkout tails: the day after the last occupied night carries the
	// departing booking's metadata. When that day starts a new bar
	// (back-to-back) the cell keeps both the start marker and the tail so
	// the renderer can draw a split cell; a tail is suppressed only when
	// the checkout day sits inside another bar.
	for _, b := range bookings {
		if !b.Participates() || !ym.Contains(b.CheckOut) {
			continue
		}
		rd := &days[b.CheckOut.Day()-1]
		if rd.Status == domain.StatusBooked || rd.Status == domain.StatusOnHold {
			if rd.Position != domain.SpanStart && rd.Position != domain.SpanSingle {
				continue
			}
		}
		if rd.Tail != nil {
			continue
		}
		color := domain.TailColorStay
		if b.Status == domain.BookingOnHold {
			color = domain.TailColorHold
		}
		rd.Tail = &domain.CheckoutTail{
			BookingID: b.ID,
			GuestName: b.GuestName,
			Source:    b.Source,
			Color:     color,
		}
	}
}
