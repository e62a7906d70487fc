package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/b-coman/prop-management-sub006/internal/domain"
)

// MutationService applies manual block/unblock requests against the
// availability store, guarded so a human toggle can never corrupt hold-,
// external- or booking-derived state.
type MutationService struct {
	store    domain.AvailabilityStore
	bookings domain.BookingSource
	auth     domain.Authorizer
}

func NewMutationService(store domain.AvailabilityStore, bookings domain.BookingSource, auth domain.Authorizer) *MutationService {
	return &MutationService{store: store, bookings: bookings, auth: auth}
}

// ToggleDay blocks or unblocks a single day.
//
// Blocking always succeeds: holds, bookings and external blocks already
// imply unavailability, so an extra explicit false conflicts with nothing.
// Unblocking refuses with a typed guard error when any other source still
// claims the day, and performs no write in that case.
func (s *MutationService) ToggleDay(ctx context.Context, propertyID string, ym domain.YearMonth, day int, block bool) error {
	if err := authorize(ctx, s.auth, propertyID); err != nil {
		return err
	}
	if day < 1 || day > ym.Days() {
		return fmt.Errorf("day %d out of range for %s", day, ym)
	}

	if !block {
		// Guard check against a consistent read taken immediately before
		// the write. Concurrent writers are not protected against beyond
		// the store's atomic single-record write; see DESIGN.md.
		rec, err := s.store.GetRecord(ctx, propertyID, ym)
		if err != nil {
			return fmt.Errorf("load record: %w", err)
		}
		bookings, err := s.bookings.BookingsForMonth(ctx, propertyID, ym)
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		if err := guardUnblock(ym, day, rec, bookings); err != nil {
			return err
		}
	}

	patch := domain.RecordPatch{SetAvailable: map[int]bool{day: !block}}
	if err := s.store.UpdateRecord(ctx, propertyID, ym, patch); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	log.Info().
		Str("property", propertyID).
		Str("month", ym.String()).
		Int("day", day).
		Bool("block", block).
		Msg("day toggled")
	return nil
}

// ToggleRange applies the same per-day guard over an arbitrary set of days
// grouped by month. Each day independently succeeds or is skipped; the
// operation is deliberately not all-or-nothing, because a bulk selection
// routinely spans guarded and unguarded days. All accepted writes for one
// month commit as a single atomic batch; months are independent of each
// other, so a failure mid-way leaves earlier months committed and the
// returned counts are the source of truth.
func (s *MutationService) ToggleRange(ctx context.Context, propertyID string, dates []domain.MonthDay, block bool) (domain.RangeResult, error) {
	var res domain.RangeResult
	if err := authorize(ctx, s.auth, propertyID); err != nil {
		return res, err
	}

	months := make([]domain.YearMonth, 0, 2)
	byMonth := map[domain.YearMonth][]int{}
	for _, md := range dates {
		if _, seen := byMonth[md.Month]; !seen {
			months = append(months, md.Month)
		}
		byMonth[md.Month] = append(byMonth[md.Month], md.Day)
	}

	for _, ym := range months {
		var (
			rec      *domain.AvailabilityRecord
			bookings []domain.Booking
			err      error
		)
		rec, err = s.store.GetRecord(ctx, propertyID, ym)
		if err != nil {
			return res, fmt.Errorf("load record %s: %w", ym, err)
		}
		if !block {
			bookings, err = s.bookings.BookingsForMonth(ctx, propertyID, ym)
			if err != nil {
				return res, fmt.Errorf("load bookings %s: %w", ym, err)
			}
		}

		var patch domain.RecordPatch
		for _, day := range byMonth[ym] {
			if day < 1 || day > ym.Days() {
				res.SkippedCount++
				continue
			}
			if !block {
				if gerr := guardUnblock(ym, day, rec, bookings); gerr != nil {
					res.SkippedCount++
					continue
				}
			}
			patch.MarkAvailable(day, !block)
			res.BlockedCount++
		}
		if patch.Empty() {
			continue
		}
		if err := s.store.UpdateRecord(ctx, propertyID, ym, patch); err != nil {
			return res, fmt.Errorf("write record %s: %w", ym, err)
		}
	}

	log.Info().
		Str("property", propertyID).
		Bool("block", block).
		Int("applied", res.BlockedCount).
		Int("skipped", res.SkippedCount).
		Msg("range toggled")
	return res, nil
}

// guardUnblock is the per-day unblock guard: a hold, an external block or an
// occupying stay each refuse the release, in that order.
func guardUnblock(ym domain.YearMonth, day int, rec *domain.AvailabilityRecord, bookings []domain.Booking) error {
	if rec != nil {
		if _, held := rec.Holds[day]; held {
			return domain.ErrActiveHold
		}
		if _, marked := rec.ExternalBlocks[day]; marked {
			return domain.ErrExternallyBlocked
		}
	}
	date := ym.Date(day)
	for _, b := range bookings {
		if b.IsStay() && b.Occupies(date) {
			return domain.ErrActiveBooking
		}
	}
	return nil
}
