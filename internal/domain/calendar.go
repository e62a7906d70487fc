package domain

import "time"

// DayStatus is the five-way resolved status of one calendar day. Exactly one
// status applies per day; the resolver guarantees totality and exclusivity.
type DayStatus string

const (
	StatusAvailable     DayStatus = "available"
	StatusBooked        DayStatus = "booked"
	StatusOnHold        DayStatus = "on-hold"
	StatusExternalBlock DayStatus = "external-block"
	StatusManualBlock   DayStatus = "manual-block"
)

// GenericFeedLabel is shown when an external block references a feed that no
// longer exists in the registry.
const GenericFeedLabel = "External calendar"

// SpanPosition tags a booked/on-hold day for contiguous bar rendering.
type SpanPosition string

const (
	SpanNone   SpanPosition = ""
	SpanSingle SpanPosition = "single"
	SpanStart  SpanPosition = "start"
	SpanMiddle SpanPosition = "middle"
	SpanEnd    SpanPosition = "end"
)

// Checkout-tail color tags, derived from whether the departing booking was a
// hold or a confirmed stay. The renderer maps these to actual styling.
const (
	TailColorHold = "amber"
	TailColorStay = "teal"
)

// CheckoutTail marks the day immediately after a booking's last occupied
// night. It never implies the day itself is occupied.
type CheckoutTail struct {
	BookingID string `json:"bookingID"`
	GuestName string `json:"guestName,omitempty"`
	Source    string `json:"source,omitempty"`
	Color     string `json:"color"`
}

// BookingDetails is the per-day slice of booking data attached to booked and
// on-hold days.
type BookingDetails struct {
	GuestName string     `json:"guestName,omitempty"`
	CheckIn   time.Time  `json:"checkIn"`
	CheckOut  time.Time  `json:"checkOut"`
	Source    string     `json:"source,omitempty"`
	HoldUntil *time.Time `json:"holdUntil,omitempty"`
}

// ResolvedDay is ephemeral: recomputed from store state on every read and
// never persisted.
type ResolvedDay struct {
	Day              int             `json:"day"`
	Status           DayStatus       `json:"status"`
	BookingID        string          `json:"bookingID,omitempty"`
	Booking          *BookingDetails `json:"booking,omitempty"`
	HoldRef          string          `json:"holdRef,omitempty"`
	ExternalFeedName string          `json:"externalFeedName,omitempty"`
	Price            *float64        `json:"price,omitempty"`
	Position         SpanPosition    `json:"bookingPosition,omitempty"`
	Tail             *CheckoutTail   `json:"checkoutTail,omitempty"`
}

// MonthSummary counts each status across the month. The five buckets always
// sum to the number of days in the month.
type MonthSummary struct {
	Available     int `json:"available"`
	Booked        int `json:"booked"`
	OnHold        int `json:"onHold"`
	ExternalBlock int `json:"externalBlock"`
	ManualBlock   int `json:"manualBlock"`
}

func (s *MonthSummary) Add(st DayStatus) {
	switch st {
	case StatusAvailable:
		s.Available++
	case StatusBooked:
		s.Booked++
	case StatusOnHold:
		s.OnHold++
	case StatusExternalBlock:
		s.ExternalBlock++
	case StatusManualBlock:
		s.ManualBlock++
	}
}

func (s MonthSummary) Total() int {
	return s.Available + s.Booked + s.OnHold + s.ExternalBlock + s.ManualBlock
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MonthView is the resolved calendar handed to callers.
type MonthView struct {
	PropertyID string        `json:"propertyID"`
	Month      string        `json:"month"`
	Days       []ResolvedDay `json:"days"`
	Summary    MonthSummary  `json:"summary"`
	PriceRange *PriceRange   `json:"priceRange,omitempty"`
}
