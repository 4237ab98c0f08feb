package reconciler_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklog/tracklog-client/pkg/models"
	"github.com/tracklog/tracklog-client/pkg/reconciler"
)

// monday returns a weekday instant inside the default reporting window.
func monday(hour, min, sec int) time.Time {
	return time.Date(2024, time.February, 5, hour, min, sec, 0, time.Local)
}

func entry(t models.CallType, when time.Time, number string) models.DeviceLogEntry {
	return models.DeviceLogEntry{
		Type:        t,
		PhoneNumber: number,
		LocalID:     strconv.FormatInt(when.UnixMilli(), 10),
		DateTime:    when,
		Duration:    30,
	}
}

func record(id int64, when time.Time, number string) models.CallRecord {
	return models.CallRecord{
		ID:          id,
		PhoneNumber: number,
		DateTime:    when.Format(models.StoreTimeLayout),
	}
}

func TestReconcileCountAlwaysEqualsBatchLength(t *testing.T) {
	when := monday(10, 15, 0)
	entries := []models.DeviceLogEntry{
		entry(models.CallOutgoing, when, "5551234"),
		entry(models.CallIncoming, when.Add(time.Hour), "5555678"),
	}
	records := []models.CallRecord{record(1, when.Add(10*time.Second), "5551234")}
	confirmed := map[string]bool{entries[1].LocalID: true}

	res := reconciler.Reconcile(entries, records, confirmed, nil, nil, reconciler.DefaultOptions())
	assert.Equal(t, len(res.Batch), res.Count)
	assert.Equal(t, 2, res.Count)
}

func TestReconcileOutgoingNeedsMatchingRecord(t *testing.T) {
	when := monday(10, 15, 0)
	entries := []models.DeviceLogEntry{entry(models.CallOutgoing, when, "5551234")}

	res := reconciler.Reconcile(entries, nil, nil, nil, nil, reconciler.DefaultOptions())
	assert.Zero(t, res.Count, "unmatched outgoing entry must not be counted")

	// Seconds differ across the two sources; minute precision still matches.
	records := []models.CallRecord{record(1, when.Add(42*time.Second), "5551234")}
	res = reconciler.Reconcile(entries, records, nil, nil, nil, reconciler.DefaultOptions())
	require.Equal(t, 1, res.Count)
	assert.Equal(t, models.CallOutgoing, res.Batch[0].CallType)
	assert.Equal(t, entries[0].LocalID, res.Batch[0].LocalDBID)
	assert.Equal(t, entries[0].LocalID, res.Batch[0].Timestamp)
}

func TestReconcileIncomingNeedsConfirmation(t *testing.T) {
	when := monday(9, 0, 0)
	entries := []models.DeviceLogEntry{
		entry(models.CallIncoming, when, "5551234"),
		entry(models.CallMissed, when.Add(time.Minute), "5555678"),
	}

	res := reconciler.Reconcile(entries, nil, nil, nil, nil, reconciler.DefaultOptions())
	assert.Zero(t, res.Count)

	confirmed := map[string]bool{entries[0].LocalID: true}
	res = reconciler.Reconcile(entries, nil, confirmed, nil, nil, reconciler.DefaultOptions())
	require.Equal(t, 1, res.Count)
	assert.Equal(t, models.CallIncoming, res.Batch[0].CallType)
}

func TestReconcileWindowAndWeekendExclusion(t *testing.T) {
	saturday := time.Date(2024, time.February, 3, 10, 0, 0, 0, time.Local)
	tooEarly := monday(7, 59, 0)
	tooLate := monday(22, 0, 0)
	lastHour := monday(21, 30, 0) // hour 21 is still inside, bounds inclusive
	firstHour := monday(8, 0, 0)

	entries := []models.DeviceLogEntry{
		entry(models.CallIncoming, saturday, "1"),
		entry(models.CallIncoming, tooEarly, "2"),
		entry(models.CallIncoming, tooLate, "3"),
		entry(models.CallIncoming, lastHour, "4"),
		entry(models.CallIncoming, firstHour, "5"),
	}
	confirmed := make(map[string]bool)
	for _, e := range entries {
		confirmed[e.LocalID] = true
	}

	res := reconciler.Reconcile(entries, nil, confirmed, nil, nil, reconciler.DefaultOptions())
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "4", res.Batch[0].PhoneNumber)
	assert.Equal(t, "5", res.Batch[1].PhoneNumber)
}

func TestReconcileMergesCachedBatchKeepingLast(t *testing.T) {
	when := monday(10, 15, 0)
	e := entry(models.CallIncoming, when, "5551234")
	confirmed := map[string]bool{e.LocalID: true}

	stale := models.SyncBatchItem{
		LocalDBID:   e.LocalID,
		PhoneNumber: "5551234",
		Name:        "",
		Timestamp:   e.LocalID,
		CallType:    models.CallIncoming,
	}
	other := models.SyncBatchItem{
		LocalDBID:   "1706000000000",
		PhoneNumber: "5550000",
		Timestamp:   "1706000000000",
		CallType:    models.CallMissed,
	}

	e.Name = "Alice" // fresh copy carries the resolved contact name

	res := reconciler.Reconcile([]models.DeviceLogEntry{e}, nil, confirmed, nil,
		[]models.SyncBatchItem{stale, other}, reconciler.DefaultOptions())

	require.Equal(t, 2, res.Count)
	assert.Equal(t, e.LocalID, res.Batch[0].LocalDBID)
	assert.Equal(t, "Alice", res.Batch[0].Name, "fresh copy wins over the cached one")
	assert.Equal(t, "1706000000000", res.Batch[1].LocalDBID)
}

func TestReconcileDropsSyncedEntries(t *testing.T) {
	when := monday(10, 15, 0)
	e1 := entry(models.CallIncoming, when, "5551234")
	e2 := entry(models.CallIncoming, when.Add(time.Minute), "5555678")
	confirmed := map[string]bool{e1.LocalID: true, e2.LocalID: true}
	synced := map[string]bool{e1.LocalID: true}

	cached := []models.SyncBatchItem{{LocalDBID: e1.LocalID, Timestamp: e1.LocalID}}

	res := reconciler.Reconcile([]models.DeviceLogEntry{e1, e2}, nil, confirmed, synced,
		cached, reconciler.DefaultOptions())

	require.Equal(t, 1, res.Count)
	assert.Equal(t, e2.LocalID, res.Batch[0].LocalDBID)
}

func TestInWindow(t *testing.T) {
	opts := reconciler.DefaultOptions()

	assert.True(t, reconciler.InWindow(monday(8, 0, 0), opts))
	assert.True(t, reconciler.InWindow(monday(21, 59, 59), opts))
	assert.False(t, reconciler.InWindow(monday(7, 59, 59), opts))
	assert.False(t, reconciler.InWindow(monday(22, 0, 0), opts))

	sunday := time.Date(2024, time.February, 4, 12, 0, 0, 0, time.Local)
	assert.False(t, reconciler.InWindow(sunday, opts))
	friday := time.Date(2024, time.February, 9, 12, 0, 0, 0, time.Local)
	assert.True(t, reconciler.InWindow(friday, opts))
}

func TestVisibleHidesUnmatchedOutgoingOnly(t *testing.T) {
	when := monday(10, 15, 0)
	out := entry(models.CallOutgoing, when, "5551234")
	in := entry(models.CallIncoming, when.Add(time.Minute), "5555678")

	visible := reconciler.Visible([]models.DeviceLogEntry{out, in}, nil, reconciler.DefaultOptions())
	require.Len(t, visible, 1)
	assert.Equal(t, models.CallIncoming, visible[0].Type)

	records := []models.CallRecord{record(1, when, "5551234")}
	visible = reconciler.Visible([]models.DeviceLogEntry{out, in}, records, reconciler.DefaultOptions())
	assert.Len(t, visible, 2)
}
