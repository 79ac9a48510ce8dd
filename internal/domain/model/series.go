package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BucketSize is a fixed-width time interval used to regularize irregular
// snapshot timestamps into a time series.
type BucketSize string

const (
	BucketHour  BucketSize = "hour"
	BucketDay   BucketSize = "day"
	BucketWeek  BucketSize = "week"
	BucketMonth BucketSize = "month"
)

// Width returns the bucket's fixed duration. A month is a fixed 30-day width,
// not a calendar month, so bucket keys stay a pure floor division.
func (b BucketSize) Width() time.Duration {
	switch b {
	case BucketHour:
		return time.Hour
	case BucketDay:
		return 24 * time.Hour
	case BucketWeek:
		return 7 * 24 * time.Hour
	case BucketMonth:
		return 30 * 24 * time.Hour
	}
	return 0
}

// ParseBucketSize validates a user-supplied bucket size string.
func ParseBucketSize(s string) (BucketSize, error) {
	b := BucketSize(s)
	if b.Width() == 0 {
		return "", fmt.Errorf("unknown bucket size %q: want hour, day, week, or month", s)
	}
	return b, nil
}

// TimePoint is one entry of a reconstructed net-worth series. Timestamp is the
// bucket's lower boundary.
type TimePoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}
