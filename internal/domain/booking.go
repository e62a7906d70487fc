package domain

import "time"

type BookingStatus string

const (
	BookingConfirmed     BookingStatus = "confirmed"
	BookingCompleted     BookingStatus = "completed"
	BookingOnHold        BookingStatus = "on-hold"
	BookingCancelled     BookingStatus = "cancelled"
	BookingPaymentFailed BookingStatus = "payment_failed"
)

// Booking is owned by the booking subsystem and is read-only here.
// CheckOut is exclusive: the guest's last night is CheckOut minus one day.
type Booking struct {
	ID         string
	PropertyID string
	CheckIn    time.Time // date at UTC midnight
	CheckOut   time.Time // date at UTC midnight, exclusive
	Status     BookingStatus
	GuestName  string
	Source     string
	HoldUntil  *time.Time
}

// Participates reports whether the booking takes part in day resolution.
func (b Booking) Participates() bool {
	switch b.Status {
	case BookingConfirmed, BookingCompleted, BookingOnHold:
		return true
	}
	return false
}

// IsStay reports a confirmed or completed booking, i.e. one that renders a
// day as booked rather than on-hold.
func (b Booking) IsStay() bool {
	return b.Status == BookingConfirmed || b.Status == BookingCompleted
}

// Occupies reports whether the date (UTC midnight) is an occupied night.
func (b Booking) Occupies(date time.Time) bool {
	return !date.Before(b.CheckIn) && date.Before(b.CheckOut)
}

// LastNight is the final occupied night, CheckOut minus one day.
func (b Booking) LastNight() time.Time {
	return b.CheckOut.AddDate(0, 0, -1)
}
