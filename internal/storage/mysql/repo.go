package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/b-coman/prop-management-sub006/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- availability records ----

func (r *Repo) GetRecord(ctx context.Context, propertyID string, ym domain.YearMonth) (*domain.AvailabilityRecord, error) {
	row := r.db.QueryRowContext(ctx, getRecordSQL, domain.RecordKey(propertyID, ym))
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil // absence means "all days available"
	}
	return rec, err
}

func (r *Repo) ListRecords(ctx context.Context, propertyID string) ([]*domain.AvailabilityRecord, error) {
	rows, err := r.db.QueryContext(ctx, listRecordsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AvailabilityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateRecord loads the record (or starts an empty one), applies the patch
// and writes the whole row back in a single upsert. The write itself is
// atomic; there is deliberately no compare-and-swap against the read — see
// the concurrency notes in DESIGN.md.
func (r *Repo) UpdateRecord(ctx context.Context, propertyID string, ym domain.YearMonth, patch domain.RecordPatch) error {
	rec, err := r.GetRecord(ctx, propertyID, ym)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = domain.NewAvailabilityRecord(propertyID, ym)
	}
	patch.Apply(rec)

	avail, _ := json.Marshal(rec.Available)
	holds, _ := json.Marshal(rec.Holds)
	ext, _ := json.Marshal(rec.ExternalBlocks)
	_, err = r.db.ExecContext(ctx, upsertRecordSQL,
		rec.Key(), rec.PropertyID, rec.Month.String(),
		string(avail), string(holds), string(ext),
	)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRecord(row rowScanner) (*domain.AvailabilityRecord, error) {
	var (
		propertyID, ymStr             string
		availJSON, holdsJSON, extJSON []byte
		updatedAt                     sql.NullTime
	)
	if err := row.Scan(&propertyID, &ymStr, &availJSON, &holdsJSON, &extJSON, &updatedAt); err != nil {
		return nil, err
	}
	ym, err := domain.ParseYearMonth(ymStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt year_month %q: %w", ymStr, err)
	}
	rec := domain.NewAvailabilityRecord(propertyID, ym)
	if len(availJSON) > 0 {
		if err := json.Unmarshal(availJSON, &rec.Available); err != nil {
			return nil, fmt.Errorf("corrupt available map: %w", err)
		}
	}
	if len(holdsJSON) > 0 {
		if err := json.Unmarshal(holdsJSON, &rec.Holds); err != nil {
			return nil, fmt.Errorf("corrupt holds map: %w", err)
		}
	}
	if len(extJSON) > 0 {
		if err := json.Unmarshal(extJSON, &rec.ExternalBlocks); err != nil {
			return nil, fmt.Errorf("corrupt external_blocks map: %w", err)
		}
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return rec, nil
}

// ---- bookings (read-only here) ----

func (r *Repo) BookingsForMonth(ctx context.Context, propertyID string, ym domain.YearMonth) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, bookingsForMonthSQL, propertyID, ym.Next(), ym.First())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		var (
			b         domain.Booking
			status    string
			holdUntil sql.NullTime
		)
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.CheckIn, &b.CheckOut, &status, &b.GuestName, &b.Source, &holdUntil); err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		if holdUntil.Valid {
			t := holdUntil.Time
			b.HoldUntil = &t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) UpsertBooking(ctx context.Context, b domain.Booking) error {
	var holdUntil any
	if b.HoldUntil != nil {
		holdUntil = *b.HoldUntil
	}
	_, err := r.db.ExecContext(ctx, upsertBookingSQL,
		b.ID, b.PropertyID, b.CheckIn, b.CheckOut, string(b.Status), b.GuestName, b.Source, holdUntil,
	)
	return err
}

// ---- feeds ----

func (r *Repo) GetFeed(ctx context.Context, id string) (domain.ICalFeed, error) {
	f, err := scanFeed(r.db.QueryRowContext(ctx, getFeedSQL, id))
	if err == sql.ErrNoRows {
		return domain.ICalFeed{}, domain.ErrNotFound
	}
	return f, err
}

func (r *Repo) ListFeeds(ctx context.Context, propertyID string) ([]domain.ICalFeed, error) {
	return r.queryFeeds(ctx, listFeedsSQL, propertyID)
}

func (r *Repo) ListEnabledFeeds(ctx context.Context) ([]domain.ICalFeed, error) {
	return r.queryFeeds(ctx, listEnabledFeedsSQL)
}

func (r *Repo) queryFeeds(ctx context.Context, query string, args ...any) ([]domain.ICalFeed, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ICalFeed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanFeed(row rowScanner) (domain.ICalFeed, error) {
	var (
		f          domain.ICalFeed
		lastSyncAt sql.NullTime
		status     sql.NullString
		syncErr    sql.NullString
	)
	if err := row.Scan(&f.ID, &f.PropertyID, &f.Name, &f.URL, &f.Enabled,
		&lastSyncAt, &status, &syncErr, &f.LastSyncEventsCount); err != nil {
		return domain.ICalFeed{}, err
	}
	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		f.LastSyncAt = &t
	}
	if status.Valid {
		f.LastSyncStatus = domain.FeedSyncStatus(status.String)
	} else {
		f.LastSyncStatus = domain.FeedSyncPending
	}
	f.LastSyncError = syncErr.String
	return f, nil
}

func (r *Repo) CreateFeed(ctx context.Context, f domain.ICalFeed) error {
	_, err := r.db.ExecContext(ctx, insertFeedSQL,
		f.ID, f.PropertyID, f.Name, f.URL, f.Enabled, string(f.LastSyncStatus))
	return err
}

func (r *Repo) SetFeedEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, setFeedEnabledSQL, enabled, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *Repo) RecordFeedSync(ctx context.Context, id string, out domain.FeedSyncOutcome) error {
	res, err := r.db.ExecContext(ctx, recordFeedSyncSQL,
		out.At, string(out.Status), out.Error, out.EventsCount, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *Repo) DeleteFeed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, deleteFeedSQL, id)
	return err
}

func affectedOrNotFound(res sql.Result) error {
	// RowsAffected is 0 both for a missing row and for a no-op update;
	// the mysql driver reports matched rows only with a DSN flag, so
	// treat 0 as not-found only when the row truly does not exist is not
	// distinguishable here. Missing feeds are caught earlier by GetFeed.
	_, err := res.RowsAffected()
	return err
}

// ---- pricing lookup (read-only annotation source) ----

func (r *Repo) DailyPrices(ctx context.Context, propertyID string, ym domain.YearMonth) (map[int]float64, error) {
	rows, err := r.db.QueryContext(ctx, dailyRatesSQL, propertyID, ym.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int]float64{}
	for rows.Next() {
		var (
			day   int
			price float64
		)
		if err := rows.Scan(&day, &price); err != nil {
			return nil, err
		}
		out[day] = price
	}
	return out, rows.Err()
}

func (r *Repo) UpsertDailyRate(ctx context.Context, propertyID string, ym domain.YearMonth, day int, price float64) error {
	_, err := r.db.ExecContext(ctx, upsertDailyRateSQL, propertyID, ym.String(), day, price)
	return err
}

// ---- properties & authorization gate ----

func (r *Repo) UpsertProperty(ctx context.Context, id, ownerID, name string) error {
	_, err := r.db.ExecContext(ctx, upsertPropertySQL, id, ownerID, name)
	return err
}

// CanManage implements domain.Authorizer against property ownership. The
// system actor (scheduled syncer) always passes; anonymous callers and
// unknown properties are denied, not errored.
func (r *Repo) CanManage(ctx context.Context, propertyID string) (bool, error) {
	actor := domain.ActorFromContext(ctx)
	if actor == domain.SystemActor {
		return true, nil
	}
	if actor == "" {
		return false, nil
	}
	var ownerID string
	err := r.db.QueryRowContext(ctx, getPropertyOwnerSQL, propertyID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ownerID == actor, nil
}
