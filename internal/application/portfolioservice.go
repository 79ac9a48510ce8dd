package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcrawford/networth/internal/domain/model"
	"github.com/jcrawford/networth/internal/domain/port/driven"
)

// HistoryQuery bounds a portfolio reconstruction. Start and End are optional;
// nil means unbounded on that side.
type HistoryQuery struct {
	Start  *time.Time
	End    *time.Time
	Bucket model.BucketSize
}

// PortfolioService reconstructs net-worth time series from the append-only
// snapshot log.
type PortfolioService struct {
	accounts  driven.AccountStore
	snapshots driven.SnapshotStore
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(accounts driven.AccountStore, snapshots driven.SnapshotStore) *PortfolioService {
	return &PortfolioService{accounts: accounts, snapshots: snapshots}
}

// History rebuilds the owner's net-worth series across the accounts counted
// toward net worth. Snapshots are folded into fixed-width buckets; within a
// bucket each account contributes its last observed value, and accounts with
// no observation yet carry their last known value forward. The series is
// sparse: buckets with no snapshot at all emit nothing, and a bucket's value
// is the sum over every account observed so far.
func (s *PortfolioService) History(ctx context.Context, ownerID string, q HistoryQuery) ([]model.TimePoint, error) {
	width := q.Bucket.Width()
	if width == 0 {
		return nil, fmt.Errorf("invalid bucket size %q", q.Bucket)
	}

	accounts, err := s.accounts.ListIncluded(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return []model.TimePoint{}, nil
	}

	accountIDs := make([]string, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}

	snaps, err := s.snapshots.QueryRange(ctx, accountIDs, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return []model.TimePoint{}, nil
	}

	widthMs := width.Milliseconds()
	lastValue := make(map[string]decimal.Decimal, len(accounts))

	points := []model.TimePoint{}
	currentBucket := bucketStart(snaps[0].CreatedAt, widthMs)

	emit := func(bucket int64) {
		var total decimal.Decimal
		for _, v := range lastValue {
			total = total.Add(v)
		}
		points = append(points, model.TimePoint{
			Timestamp: time.UnixMilli(bucket).UTC(),
			Value:     total,
		})
	}

	for _, snap := range snaps {
		bucket := bucketStart(snap.CreatedAt, widthMs)
		if bucket != currentBucket {
			emit(currentBucket)
			currentBucket = bucket
		}
		lastValue[snap.AccountID] = snap.Value
	}
	emit(currentBucket)

	return points, nil
}

// bucketStart floors a timestamp to its bucket's lower boundary in unix
// milliseconds. Go's integer division truncates toward zero, so negative
// epochs (pre-1970 timestamps) need the explicit floor adjustment.
func bucketStart(t time.Time, widthMs int64) int64 {
	ms := t.UnixMilli()
	bucket := (ms / widthMs) * widthMs
	if ms < 0 && ms%widthMs != 0 {
		bucket -= widthMs
	}
	return bucket
}
