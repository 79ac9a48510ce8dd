package sqlite

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

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testAccount(owner, externalID string) model.Account {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	return model.Account{
		ID:                uuid.New().String(),
		OwnerID:           owner,
		Provider:          model.ProviderBridge,
		ExternalID:        externalID,
		Name:              "Everyday Checking",
		Category:          "depository",
		Balance:           dec("1209.45"),
		LastSyncedAt:      &now,
		IncludeInNetWorth: true,
		Metadata: model.Metadata{
			Bridge: &model.BridgeMetadata{OrgName: "First Example Bank", Currency: "USD"},
		},
	}
}

func TestAccountRepo_UpsertAndGet(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	require.NoError(t, repo.Upsert(ctx, a))

	got, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderBridge, "ACT-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Everyday Checking", got.Name)
	require.NotNil(t, got.Balance)
	assert.True(t, got.Balance.Equal(*a.Balance))
	require.NotNil(t, got.Metadata.Bridge)
	assert.Equal(t, "First Example Bank", got.Metadata.Bridge.OrgName)
	assert.True(t, got.IncludeInNetWorth)
	assert.False(t, got.Hidden)
}

func TestAccountRepo_GetMissingReturnsNil(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))

	got, err := repo.GetByExternalID(context.Background(), "owner-1", model.ProviderBridge, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccountRepo_UpsertPreservesLocalOnlyFields(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	require.NoError(t, repo.Upsert(ctx, a))

	// User hides the account and excludes it from net worth.
	got, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderBridge, "ACT-1")
	require.NoError(t, err)
	require.NoError(t, repo.SetIncluded(ctx, got.ID, false))

	// A later sync upserts fresh provider data under a different local id,
	// as the reconciler does when it builds a candidate row.
	fresh := testAccount("owner-1", "ACT-1")
	fresh.Name = "Everyday Checking (renamed)"
	fresh.Balance = dec("900.00")
	require.NoError(t, repo.Upsert(ctx, fresh))

	after, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderBridge, "ACT-1")
	require.NoError(t, err)

	// Provider-owned fields moved; local id and local-only flags did not.
	assert.Equal(t, got.ID, after.ID)
	assert.Equal(t, "Everyday Checking (renamed)", after.Name)
	assert.True(t, after.Balance.Equal(decimal.RequireFromString("900.00")))
	assert.False(t, after.IncludeInNetWorth)
}

func TestAccountRepo_UpsertIsIdempotent(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, a))

	accounts, err := repo.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAccountRepo_NilBalanceRoundTrips(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	a.Balance = nil
	require.NoError(t, repo.Upsert(ctx, a))

	got, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderBridge, "ACT-1")
	require.NoError(t, err)
	assert.Nil(t, got.Balance)
}

func TestAccountRepo_ListIncluded(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	b := testAccount("owner-1", "ACT-2")
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, b))
	require.NoError(t, repo.SetIncluded(ctx, b.ID, false))

	// A different owner's account must not leak in.
	other := testAccount("owner-2", "ACT-1")
	require.NoError(t, repo.Upsert(ctx, other))

	included, err := repo.ListIncluded(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, included, 1)
	assert.Equal(t, "ACT-1", included[0].ExternalID)
}

func TestAccountRepo_Delete(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "ACT-1")
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Delete(ctx, a.ID))

	got, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderBridge, "ACT-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, repo.Delete(ctx, a.ID))
}

func TestAccountRepo_WalletMetadataRoundTrips(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	a := testAccount("owner-1", "0xdeadbeef")
	a.Provider = model.ProviderWallet
	a.Metadata = model.Metadata{
		Wallet: &model.WalletMetadata{
			Address: "0xdeadbeef",
			Tokens: []model.TokenHolding{
				{Symbol: "USDC", Quantity: decimal.RequireFromString("512.5"), USDPrice: dec("1")},
				{Symbol: "OBSCURE", Quantity: decimal.RequireFromString("3")},
			},
		},
	}
	require.NoError(t, repo.Upsert(ctx, a))

	got, err := repo.GetByExternalID(ctx, "owner-1", model.ProviderWallet, "0xdeadbeef")
	require.NoError(t, err)
	require.NotNil(t, got.Metadata.Wallet)
	require.Len(t, got.Metadata.Wallet.Tokens, 2)
	assert.Equal(t, "USDC", got.Metadata.Wallet.Tokens[0].Symbol)
	require.NotNil(t, got.Metadata.Wallet.Tokens[0].USDPrice)
	assert.Nil(t, got.Metadata.Wallet.Tokens[1].USDPrice)
}
