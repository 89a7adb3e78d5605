package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/medlem-go/internal/store"
)

// Key prefixes.
const (
	keyRoles       = "roles:all"
	keyRoleMembers = "roles:members:"
	keyReports     = "reports:"
)

// Manager holds the typed caches the app uses. Role and report data change
// only through member, payment and role writes, which call the Invalidate
// methods.
type Manager struct {
	backend Cacher
	Backend string

	roles       *TypedCache[[]store.Role]
	roleMembers *TypedCache[[]store.MemberSummary]
	members     *TypedCache[[]store.Member]
}

// NewManager wraps backend. backendName is reported on the health endpoint.
func NewManager(backend Cacher, backendName string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Manager{
		backend:     backend,
		Backend:     backendName,
		roles:       NewTypedCache[[]store.Role](backend, ttl),
		roleMembers: NewTypedCache[[]store.MemberSummary](backend, ttl),
		members:     NewTypedCache[[]store.Member](backend, ttl),
	}
}

// Roles returns all roles, loading them through q on a miss.
func (m *Manager) Roles(ctx context.Context, q *store.Queries) ([]store.Role, error) {
	return m.roles.GetOrSet(ctx, keyRoles, func() ([]store.Role, error) {
		return q.ListRoles(ctx)
	})
}

// RoleMembers returns the members holding roleID.
func (m *Manager) RoleMembers(ctx context.Context, q *store.Queries, roleID int64) ([]store.MemberSummary, error) {
	key := fmt.Sprintf("%s%d", keyRoleMembers, roleID)
	return m.roleMembers.GetOrSet(ctx, key, func() ([]store.MemberSummary, error) {
		return q.ListMembersByRoleID(ctx, roleID)
	})
}

// UnpaidMembers returns the unpaid report for [fromYear, toYear].
func (m *Manager) UnpaidMembers(ctx context.Context, q *store.Queries, fromYear, toYear int64) ([]store.Member, error) {
	key := fmt.Sprintf("%sunpaid:%d-%d", keyReports, fromYear, toYear)
	return m.members.GetOrSet(ctx, key, func() ([]store.Member, error) {
		return q.ListUnpaidMembers(ctx, fromYear, toYear)
	})
}

// CommunicationMembers returns the active-member email report.
func (m *Manager) CommunicationMembers(ctx context.Context, q *store.Queries) ([]store.Member, error) {
	return m.members.GetOrSet(ctx, keyReports+"communication", func() ([]store.Member, error) {
		return q.ListCommunicationMembers(ctx)
	})
}

// InvalidateRoles drops the role list and every per-role member list.
func (m *Manager) InvalidateRoles(ctx context.Context) {
	m.drop(ctx, keyRoles)
	m.drop(ctx, keyRoleMembers)
}

// InvalidateMembers drops everything derived from member rows.
func (m *Manager) InvalidateMembers(ctx context.Context) {
	m.drop(ctx, keyRoleMembers)
	m.drop(ctx, keyReports)
}

// InvalidatePayments drops the payment-derived reports.
func (m *Manager) InvalidatePayments(ctx context.Context) {
	m.drop(ctx, keyReports)
}

func (m *Manager) drop(ctx context.Context, prefix string) {
	if err := m.backend.DeleteByPrefix(ctx, prefix); err != nil {
		slog.Warn("cache invalidation failed", "prefix", prefix, "error", err)
	}
}

// Stats returns backend statistics when the backend tracks them.
func (m *Manager) Stats() (Stats, bool) {
	sp, ok := m.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}

// Ping reports backend reachability. Memory caches are always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
