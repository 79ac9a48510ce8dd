package model

// SyncResult reports the outcome of syncing one provider. Error is empty on
// success; on failure it holds actionable, user-facing text rather than raw
// exception detail.
type SyncResult struct {
	Provider Provider
	Synced   int
	Error    string
}

// OK reports whether the sync succeeded.
func (r SyncResult) OK() bool {
	return r.Error == ""
}

// SyncAllResult aggregates per-provider results from a full sync. TotalSynced
// sums only the succeeding providers' counts; one provider's failure never
// hides another's success.
type SyncAllResult struct {
	PerProvider []SyncResult
	TotalSynced int
}
