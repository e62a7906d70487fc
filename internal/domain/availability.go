package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// YearMonth identifies one calendar month, e.g. 2025-06.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses the wire form "2006-01".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// MarshalJSON/UnmarshalJSON carry the wire form "2006-01".
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ym.String() + `"`), nil
}

func (ym *YearMonth) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// Days returns the number of calendar days in the month.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns the given day of the month at UTC midnight.
func (ym YearMonth) Date(day int) time.Time {
	return time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, time.UTC)
}

// First returns the first day of the month; Next the first day of the
// following month. Together they bound the month as [First, Next).
func (ym YearMonth) First() time.Time { return ym.Date(1) }

func (ym YearMonth) Next() time.Time {
	return time.Date(ym.Year, ym.Month+1, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}

// RecordKey is the persisted document key, e.g. "chalet-x_2025-06".
// The format is a hard compatibility point; do not change it.
func RecordKey(propertyID string, ym YearMonth) string {
	return propertyID + "_" + ym.String()
}

// AvailabilityRecord holds the manually- and externally-asserted day state
// for one (property, month). Booking occupancy is derived at read time and
// never stored here.
//
// A day key absent from Available means "available" unless another source
// says otherwise; this default is relied on everywhere, so callers must
// distinguish "key absent" from "key present with value false".
type AvailabilityRecord struct {
	PropertyID     string
	Month          YearMonth
	Available      map[int]bool   // explicit overrides; absent day = available
	Holds          map[int]string // day -> hold reference id (may be empty)
	ExternalBlocks map[int]string // day -> feed id
	UpdatedAt      time.Time
}

func NewAvailabilityRecord(propertyID string, ym YearMonth) *AvailabilityRecord {
	return &AvailabilityRecord{
		PropertyID:     propertyID,
		Month:          ym,
		Available:      map[int]bool{},
		Holds:          map[int]string{},
		ExternalBlocks: map[int]string{},
	}
}

func (r *AvailabilityRecord) Key() string {
	return RecordKey(r.PropertyID, r.Month)
}

// ExplicitlyBlocked reports whether the day carries an explicit
// available=false override (as opposed to the key being absent).
func (r *AvailabilityRecord) ExplicitlyBlocked(day int) bool {
	v, ok := r.Available[day]
	return ok && !v
}

// ExplicitlyOpen reports whether the day carries an explicit
// available=true override.
func (r *AvailabilityRecord) ExplicitlyOpen(day int) bool {
	v, ok := r.Available[day]
	return ok && v
}

// RecordPatch is an explicit set-vs-remove diff against one record's maps.
// It replaces in-place map mutation at the store boundary so the accessor
// can apply "set to value" and "remove key" as two distinct operations
// instead of a delete-sentinel value.
type RecordPatch struct {
	SetAvailable   map[int]bool
	ClearAvailable []int
	SetHold        map[int]string
	ClearHold      []int
	SetExternal    map[int]string
	ClearExternal  []int
}

func (p *RecordPatch) Empty() bool {
	return len(p.SetAvailable) == 0 && len(p.ClearAvailable) == 0 &&
		len(p.SetHold) == 0 && len(p.ClearHold) == 0 &&
		len(p.SetExternal) == 0 && len(p.ClearExternal) == 0
}

func (p *RecordPatch) MarkAvailable(day int, v bool) {
	if p.SetAvailable == nil {
		p.SetAvailable = map[int]bool{}
	}
	p.SetAvailable[day] = v
}

func (p *RecordPatch) MarkExternal(day int, feedID string) {
	if p.SetExternal == nil {
		p.SetExternal = map[int]string{}
	}
	p.SetExternal[day] = feedID
}

// Apply mutates r with the patch: sets first, then key removals.
func (p *RecordPatch) Apply(r *AvailabilityRecord) {
	if r.Available == nil {
		r.Available = map[int]bool{}
	}
	if r.Holds == nil {
		r.Holds = map[int]string{}
	}
	if r.ExternalBlocks == nil {
		r.ExternalBlocks = map[int]string{}
	}
	for d, v := range p.SetAvailable {
		r.Available[d] = v
	}
	for d, v := range p.SetHold {
		r.Holds[d] = v
	}
	for d, v := range p.SetExternal {
		r.ExternalBlocks[d] = v
	}
	for _, d := range p.ClearAvailable {
		delete(r.Available, d)
	}
	for _, d := range p.ClearHold {
		delete(r.Holds, d)
	}
	for _, d := range p.ClearExternal {
		delete(r.ExternalBlocks, d)
	}
}

// MonthDay addresses one calendar day for bulk mutations.
type MonthDay struct {
	Month YearMonth `json:"month"`
	Day   int       `json:"day"`
}

// RangeResult reports a bulk toggle outcome. Bulk mutation is not
// all-or-nothing: guarded days are skipped, not fatal.
type RangeResult struct {
	BlockedCount int `json:"blockedCount"`
	SkippedCount int `json:"skippedCount"`
}
