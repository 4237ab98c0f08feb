// Package reconciler merges the device call log with the local call
// record store and decides which calls are still unsynced. It is pure:
// every value it returns is derived from its inputs on each pass, so the
// displayed count can never drift from the batch that will be uploaded.
package reconciler

import (
	"time"

	"github.com/tracklog/tracklog-client/pkg/models"
)

// Default business-hours window: calls outside it never enter the batch.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 21
)

// Options carries the business-hours window.
type Options struct {
	StartHour int // first hour of day included, inclusive
	EndHour   int // last hour of day included, inclusive
}

// DefaultOptions returns the standard reporting window.
func DefaultOptions() Options {
	return Options{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
}

// Result is the outcome of one reconciliation pass. Count always equals
// len(Batch).
type Result struct {
	Count int
	Batch []models.SyncBatchItem
}

// Reconcile computes the unsynced batch from the current device log, the
// local outgoing call records, the user's confirmed set, the synced set
// and the previously cached batch.
//
// Rules:
//   - only INCOMING, MISSED and OUTGOING entries within business hours on
//     a weekday are considered;
//   - an OUTGOING entry counts only when a local record matches it at
//     minute precision (a log entry with no matching record, or a record
//     not yet visible in the log, is not double-counted);
//   - an INCOMING or MISSED entry counts only after the user confirmed it;
//   - entries already marked synced are dropped, including stale copies in
//     the cached batch;
//   - the cached and fresh batches are merged keyed by entry timestamp,
//     keeping the last occurrence per key.
func Reconcile(
	entries []models.DeviceLogEntry,
	records []models.CallRecord,
	confirmed map[string]bool,
	synced map[string]bool,
	cached []models.SyncBatchItem,
	opts Options,
) Result {
	recordMinutes := recordMinuteSet(records)

	var fresh []models.SyncBatchItem
	for _, e := range entries {
		if !InWindow(e.DateTime, opts) {
			continue
		}
		switch e.Type {
		case models.CallOutgoing:
			if !recordMinutes[e.DateTime.Truncate(time.Minute).Unix()] {
				continue
			}
		case models.CallIncoming, models.CallMissed:
			if !confirmed[e.LocalID] {
				continue
			}
		default:
			continue
		}
		fresh = append(fresh, toBatchItem(e))
	}

	merged := mergeBatches(cached, fresh)

	batch := merged[:0:0]
	for _, item := range merged {
		if synced[item.LocalDBID] {
			continue
		}
		batch = append(batch, item)
	}

	return Result{Count: len(batch), Batch: batch}
}

// InWindow reports whether t falls on a weekday inside the reporting
// window. Both window bounds are inclusive.
func InWindow(t time.Time, opts Options) bool {
	h := t.Hour()
	if h < opts.StartHour || h > opts.EndHour {
		return false
	}
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// Visible returns the entries the call list should show: everything in
// the window except OUTGOING entries with no matching local record.
func Visible(entries []models.DeviceLogEntry, records []models.CallRecord, opts Options) []models.DeviceLogEntry {
	recordMinutes := recordMinuteSet(records)

	var out []models.DeviceLogEntry
	for _, e := range entries {
		if !InWindow(e.DateTime, opts) {
			continue
		}
		if e.Type == models.CallOutgoing &&
			!recordMinutes[e.DateTime.Truncate(time.Minute).Unix()] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// recordMinuteSet indexes local records by their minute-truncated instant.
// Records with an unparseable timestamp are ignored; they can never match
// a device entry anyway.
func recordMinuteSet(records []models.CallRecord) map[int64]bool {
	set := make(map[int64]bool, len(records))
	for _, r := range records {
		t, err := r.DialedAt()
		if err != nil {
			continue
		}
		set[t.Truncate(time.Minute).Unix()] = true
	}
	return set
}

func toBatchItem(e models.DeviceLogEntry) models.SyncBatchItem {
	return models.SyncBatchItem{
		LocalDBID:   e.LocalID,
		DateTime:    e.DateTime.Format(models.DeviceTimeLayout),
		Duration:    e.Duration,
		Name:        e.Name,
		PhoneNumber: e.PhoneNumber,
		Timestamp:   e.LocalID,
		CallType:    e.Type,
	}
}

// mergeBatches combines the cached and freshly computed batches keyed by
// entry timestamp. First occurrence fixes the position, last occurrence
// wins the value.
func mergeBatches(cached, fresh []models.SyncBatchItem) []models.SyncBatchItem {
	idx := make(map[string]int, len(cached)+len(fresh))
	var out []models.SyncBatchItem

	add := func(item models.SyncBatchItem) {
		if i, ok := idx[item.LocalDBID]; ok {
			out[i] = item
			return
		}
		idx[item.LocalDBID] = len(out)
		out = append(out, item)
	}
	for _, item := range cached {
		add(item)
	}
	for _, item := range fresh {
		add(item)
	}
	return out
}
