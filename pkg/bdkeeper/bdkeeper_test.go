package bdkeeper_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklog/tracklog-client/pkg/bdkeeper"
	"github.com/tracklog/tracklog-client/pkg/models"
)

func setup(t *testing.T) *bdkeeper.Keeper {
	t.Helper()
	k, err := bdkeeper.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { k.Close() })
	return k
}

func TestAddCallRecordAssignsSequentialIDs(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	r1, err := k.AddCallRecord(ctx, "5551234", "01-Feb-2024 10:15:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.ID)

	r2, err := k.AddCallRecord(ctx, "5555678", "01-Feb-2024 10:16:00")
	require.NoError(t, err)
	assert.Equal(t, int64(2), r2.ID)

	records, err := k.ListCallRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "5551234", records[0].PhoneNumber)
	assert.Equal(t, "01-Feb-2024 10:16:00", records[1].DateTime)
}

func TestAddCallRecordRestartsFromOneAfterClear(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	_, err := k.AddCallRecord(ctx, "5551234", "01-Feb-2024 10:15:00")
	require.NoError(t, err)
	_, err = k.AddCallRecord(ctx, "5555678", "01-Feb-2024 10:16:00")
	require.NoError(t, err)

	require.NoError(t, k.ClearCallRecords(ctx))

	records, err := k.ListCallRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	r, err := k.AddCallRecord(ctx, "5559999", "01-Feb-2024 11:00:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID)
}

func TestConfirmCallIsIdempotent(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	require.NoError(t, k.ConfirmCall(ctx, "1706778900000"))
	require.NoError(t, k.ConfirmCall(ctx, "1706778900000"))

	confirmed, synced, err := k.CallMarks(ctx)
	require.NoError(t, err)
	assert.True(t, confirmed["1706778900000"])
	assert.False(t, synced["1706778900000"])
}

func TestMarkSyncedKeepsConfirmedFlag(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	require.NoError(t, k.ConfirmCall(ctx, "1706778900000"))
	require.NoError(t, k.MarkSynced(ctx, "1706778900000"))
	require.NoError(t, k.MarkSynced(ctx, "1706779000000"))

	confirmed, synced, err := k.CallMarks(ctx)
	require.NoError(t, err)
	assert.True(t, confirmed["1706778900000"])
	assert.True(t, synced["1706778900000"])
	assert.False(t, confirmed["1706779000000"])
	assert.True(t, synced["1706779000000"])
}

func TestPendingBatchRoundTrip(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	batch, err := k.LoadPendingBatch(ctx)
	require.NoError(t, err)
	assert.Nil(t, batch)

	want := []models.SyncBatchItem{
		{
			LocalDBID:   "1706778900000",
			DateTime:    "Feb 1, 2024 10:15:00 AM",
			Duration:    42,
			Name:        "Alice",
			PhoneNumber: "5551234",
			Timestamp:   "1706778900000",
			CallType:    models.CallOutgoing,
		},
	}
	require.NoError(t, k.SavePendingBatch(ctx, want))

	got, err := k.LoadPendingBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Saving again replaces, not appends.
	require.NoError(t, k.SavePendingBatch(ctx, nil))
	got, err = k.LoadPendingBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, k.ClearPendingBatch(ctx))
	got, err = k.LoadPendingBatch(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionLifecycle(t *testing.T) {
	k := setup(t)
	ctx := context.Background()

	_, err := k.LoadSession(ctx)
	assert.ErrorIs(t, err, bdkeeper.ErrNoSession)

	sess := models.Session{UserID: 7, Name: "Alice", Password: "enc:abc", CompanyID: 3}
	require.NoError(t, k.SaveSession(ctx, sess))

	got, err := k.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	// A second login replaces the stored identity.
	sess2 := models.Session{UserID: 8, Name: "Bob", Password: "enc:def", CompanyID: 3}
	require.NoError(t, k.SaveSession(ctx, sess2))

	got, err = k.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess2, got)

	require.NoError(t, k.DeleteSession(ctx))
	_, err = k.LoadSession(ctx)
	assert.ErrorIs(t, err, bdkeeper.ErrNoSession)
}
