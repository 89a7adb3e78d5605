package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/testutil"
)

func TestManager_RolesCachedUntilInvalidated(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	m := NewManager(newTestMemoryCache(t, MemoryCacheOptions{}), BackendMemory, time.Minute)

	before, err := m.Roles(ctx, q)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	_, err = q.CreateRole(ctx, "Navigatör", "")
	require.NoError(t, err)

	cached, err := m.Roles(ctx, q)
	require.NoError(t, err)
	assert.Len(t, cached, len(before))

	m.InvalidateRoles(ctx)
	after, err := m.Roles(ctx, q)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestManager_ReportsInvalidatedByPayments(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	member := testutil.CreateMember(t, db, "Olle", "Berg")
	m := NewManager(newTestMemoryCache(t, MemoryCacheOptions{}), BackendMemory, time.Minute)

	unpaid, err := m.UnpaidMembers(ctx, q, 2025, 2025)
	require.NoError(t, err)
	require.Len(t, unpaid, 1)

	_, err = q.CreatePayment(ctx, store.CreatePaymentParams{
		MemberID:  member.ID,
		Amount:    300,
		Date:      "2025-03-01",
		Year:      2025,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	unpaid, err = m.UnpaidMembers(ctx, q, 2025, 2025)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1, "served from cache")

	m.InvalidatePayments(ctx)
	unpaid, err = m.UnpaidMembers(ctx, q, 2025, 2025)
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}

func TestManager_PingAndStats(t *testing.T) {
	m := NewManager(newTestMemoryCache(t, MemoryCacheOptions{}), BackendMemory, 0)
	assert.NoError(t, m.Ping(context.Background()))

	_, ok := m.Stats()
	assert.True(t, ok)
}
