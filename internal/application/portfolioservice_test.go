package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcrawford/networth/internal/domain/model"
)

func seedIncludedAccount(t *testing.T, accounts *fakeAccountStore, ownerID string) model.Account {
	t.Helper()

	a := model.Account{
		ID:                uuid.New().String(),
		OwnerID:           ownerID,
		Provider:          model.ProviderBridge,
		ExternalID:        uuid.New().String(),
		Name:              "Account",
		IncludeInNetWorth: true,
	}
	require.NoError(t, accounts.Upsert(context.Background(), a))
	return a
}

func addSnapshot(t *testing.T, snapshots *fakeSnapshotStore, accountID string, at time.Time, value string) {
	t.Helper()

	require.NoError(t, snapshots.Insert(context.Background(), model.Snapshot{
		ID:        uuid.New().String(),
		AccountID: accountID,
		CreatedAt: at,
		Value:     decimal.RequireFromString(value),
	}))
}

func dayQuery() HistoryQuery {
	return HistoryQuery{Bucket: model.BucketDay}
}

func TestHistory_CarriesForwardLastKnownValues(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	b := seedIncludedAccount(t, accounts, "owner-1")

	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	addSnapshot(t, snapshots, a.ID, day1, "150")
	addSnapshot(t, snapshots, b.ID, day2, "100")
	addSnapshot(t, snapshots, a.ID, day3, "250")

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 3)

	// Day 2 carries account A's 150 forward; day 3 carries B's 100.
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(150)))
	assert.True(t, points[1].Value.Equal(decimal.NewFromInt(250)))
	assert.True(t, points[2].Value.Equal(decimal.NewFromInt(350)))
}

func TestHistory_TimestampsAreBucketLowerBoundaries(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	addSnapshot(t, snapshots, a.ID, time.Date(2026, 8, 1, 17, 42, 9, 0, time.UTC), "100")

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Timestamp.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
}

func TestHistory_Pre1970TimestampsFloorToLowerBoundary(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	addSnapshot(t, snapshots, a.ID, time.Date(1969, 12, 31, 18, 0, 0, 0, time.UTC), "100")

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 1)
	// The bucket boundary is the start of Dec 31, not the epoch.
	assert.True(t, points[0].Timestamp.Equal(time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestHistory_SameBucketKeepsLastObservation(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	addSnapshot(t, snapshots, a.ID, day.Add(2*time.Hour), "100")
	addSnapshot(t, snapshots, a.ID, day.Add(20*time.Hour), "175")

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(175)))
}

func TestHistory_SparseSeriesSkipsEmptyBuckets(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	addSnapshot(t, snapshots, a.ID, day1, "100")
	addSnapshot(t, snapshots, a.ID, day1.AddDate(0, 0, 10), "200")

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10*24*time.Hour, points[1].Timestamp.Sub(points[0].Timestamp))
}

func TestHistory_ExcludedAccountsAreOmitted(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)
	ctx := context.Background()

	a := seedIncludedAccount(t, accounts, "owner-1")
	b := seedIncludedAccount(t, accounts, "owner-1")
	require.NoError(t, accounts.SetIncluded(ctx, b.ID, false))

	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	addSnapshot(t, snapshots, a.ID, day, "100")
	addSnapshot(t, snapshots, b.ID, day, "9999")

	points, err := svc.History(ctx, "owner-1", dayQuery())
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(100)))
}

func TestHistory_WindowBoundsQuery(t *testing.T) {
	accounts := newFakeAccountStore()
	snapshots := newFakeSnapshotStore()
	svc := NewPortfolioService(accounts, snapshots)

	a := seedIncludedAccount(t, accounts, "owner-1")
	day1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		addSnapshot(t, snapshots, a.ID, day1.AddDate(0, 0, i), decimal.NewFromInt(int64(100+i)).String())
	}

	start := day1.AddDate(0, 0, 2)
	q := dayQuery()
	q.Start = &start

	points, err := svc.History(context.Background(), "owner-1", q)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(102)))
}

func TestHistory_NoAccountsYieldsEmptySeries(t *testing.T) {
	svc := NewPortfolioService(newFakeAccountStore(), newFakeSnapshotStore())

	points, err := svc.History(context.Background(), "owner-1", dayQuery())
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestHistory_InvalidBucket(t *testing.T) {
	svc := NewPortfolioService(newFakeAccountStore(), newFakeSnapshotStore())

	_, err := svc.History(context.Background(), "owner-1", HistoryQuery{Bucket: "fortnight"})
	assert.Error(t, err)
}
