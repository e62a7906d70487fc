package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")

	// Guard errors: expected, recoverable, surfaced verbatim to the caller
	// and never retried automatically.
	ErrActiveHold        = errors.New("day has an active hold")
	ErrExternallyBlocked = errors.New("day is blocked by an external calendar")
	ErrActiveBooking     = errors.New("day is occupied by an active booking")

	ErrFeedDisabled = errors.New("feed is disabled")
	ErrFeedFetch    = errors.New("feed fetch failed")
	ErrFeedParse    = errors.New("feed parse failed")
)

// IsGuardError reports whether err is one of the per-day mutation refusals.
func IsGuardError(err error) bool {
	return errors.Is(err, ErrActiveHold) ||
		errors.Is(err, ErrExternallyBlocked) ||
		errors.Is(err, ErrActiveBooking)
}
