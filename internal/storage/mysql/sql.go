package mysql

// Availability records are one row per (property, month), keyed by the
// external document key "{propertyID}_{yearMonth}". The three day maps are
// stored as JSON objects keyed by day-of-month; the whole row is written in
// one statement so a multi-day patch commits atomically.

const upsertRecordSQL = `
INSERT INTO availability_records
  (record_key, property_id, ` + "`year_month`" + `, available, holds, external_blocks)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  available       = VALUES(available),
  holds           = VALUES(holds),
  external_blocks = VALUES(external_blocks),
  updated_at      = CURRENT_TIMESTAMP
`

const getRecordSQL = `
SELECT property_id, ` + "`year_month`" + `, available, holds, external_blocks, updated_at
FROM availability_records
WHERE record_key = ?
`

const listRecordsSQL = `
SELECT property_id, ` + "`year_month`" + `, available, holds, external_blocks, updated_at
FROM availability_records
WHERE property_id = ?
ORDER BY ` + "`year_month`" + `
`

// Bookings overlapping [monthStart, nextMonthStart), plus one checking out
// exactly on monthStart so its tail can be drawn. Cancelled and
// payment-failed bookings never participate.
const bookingsForMonthSQL = `
SELECT id, property_id, check_in, check_out, status, guest_name, source, hold_until
FROM bookings
WHERE property_id = ?
  AND status IN ('confirmed','completed','on-hold')
  AND check_in < ?
  AND check_out >= ?
ORDER BY check_in, id
`

const getFeedSQL = `
SELECT id, property_id, name, url, enabled,
       last_sync_at, last_sync_status, last_sync_error, last_sync_events_count
FROM ical_feeds
WHERE id = ?
`

const listFeedsSQL = `
SELECT id, property_id, name, url, enabled,
       last_sync_at, last_sync_status, last_sync_error, last_sync_events_count
FROM ical_feeds
WHERE property_id = ?
ORDER BY name, id
`

const listEnabledFeedsSQL = `
SELECT id, property_id, name, url, enabled,
       last_sync_at, last_sync_status, last_sync_error, last_sync_events_count
FROM ical_feeds
WHERE enabled = 1
ORDER BY property_id, id
`

const insertFeedSQL = `
INSERT INTO ical_feeds (id, property_id, name, url, enabled, last_sync_status)
VALUES (?, ?, ?, ?, ?, ?)
`

const setFeedEnabledSQL = `
UPDATE ical_feeds SET enabled = ? WHERE id = ?
`

const recordFeedSyncSQL = `
UPDATE ical_feeds
SET last_sync_at = ?, last_sync_status = ?, last_sync_error = ?, last_sync_events_count = ?
WHERE id = ?
`

const deleteFeedSQL = `
DELETE FROM ical_feeds WHERE id = ?
`

const dailyRatesSQL = `
SELECT ` + "`day`" + `, price
FROM daily_rates
WHERE property_id = ? AND ` + "`year_month`" + ` = ?
`

const getPropertyOwnerSQL = `
SELECT owner_id FROM properties WHERE id = ?
`

// Seed/ingest paths, used by the booking-subsystem import and tests.

const upsertPropertySQL = `
INSERT INTO properties (id, owner_id, name)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE owner_id = VALUES(owner_id), name = VALUES(name)
`

const upsertBookingSQL = `
INSERT INTO bookings
  (id, property_id, check_in, check_out, status, guest_name, source, hold_until)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  check_in   = VALUES(check_in),
  check_out  = VALUES(check_out),
  status     = VALUES(status),
  guest_name = VALUES(guest_name),
  source     = VALUES(source),
  hold_until = VALUES(hold_until)
`

const upsertDailyRateSQL = `
INSERT INTO daily_rates (property_id, ` + "`year_month`, `day`" + `, price)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE price = VALUES(price)
`
