package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

func strp(s string) *string { return &s }

func seedIdentity(t *testing.T, s *Store, id, username, userID, email string) {
	t.Helper()
	err := s.Provisioning().CreateIdentity(context.Background(),
		repository.Identity{ID: id, OrganizationID: "org-1", Username: username, UserID: userID, Email: email, CanLogin: true},
		repository.Credential{PasswordHash: "h"})
	require.NoError(t, err)
}

func TestCredentials_FindByLogin(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedIdentity(t, s, "a", "alice", "1001", "Alice@Example.com")

	c, err := s.Credentials().FindByLogin(ctx, repository.LoginByUsername, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a", c.IdentityID)

	_, err = s.Credentials().FindByLogin(ctx, repository.LoginByUsername, "ALICE")
	assert.ErrorIs(t, err, repository.ErrNotFound, "username es exacto")

	c, err = s.Credentials().FindByLogin(ctx, repository.LoginByEmail, "alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "a", c.IdentityID)

	c, err = s.Credentials().FindByLogin(ctx, repository.LoginByUserID, "1001")
	require.NoError(t, err)
	assert.Equal(t, "a", c.IdentityID)

	_, err = s.Credentials().FindByLogin(ctx, repository.LoginByUserID, "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProvisioning_Conflicts(t *testing.T) {
	s := New()
	seedIdentity(t, s, "a", "alice", "1001", "alice@example.com")

	err := s.Provisioning().CreateIdentity(context.Background(),
		repository.Identity{ID: "b", Username: "bob", Email: "ALICE@example.com"}, repository.Credential{})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCredentials_FailuresAndLock(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedIdentity(t, s, "a", "alice", "", "")
	creds := s.Credentials()

	for i := 1; i <= 3; i++ {
		n, err := creds.RecordFailure(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	until := time.Now().Add(time.Hour)
	require.NoError(t, creds.Lock(ctx, "a", 2, &until, "too_many_attempts"))
	c, err := creds.GetByIdentityID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, c.FailedAttempts)
	assert.Equal(t, 2, c.LockLevel)
	assert.True(t, c.IsLocked(time.Now()))
	assert.False(t, c.IsLocked(until.Add(time.Second)))

	require.NoError(t, creds.Unlock(ctx, "a"))
	c, err = creds.GetByIdentityID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, c.LockLevel)
	assert.Nil(t, c.LockedUntil)
	assert.False(t, c.IsLocked(time.Now()))

	_, err = creds.RecordFailure(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredential_IndefiniteLock(t *testing.T) {
	c := &repository.Credential{LockLevel: 1}
	assert.True(t, c.IsLocked(time.Now().Add(100*365*24*time.Hour)))
}

func TestSessions_BumpIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	sess := s.Sessions()

	a, err := sess.GetOrCreate(ctx, "u1", "devA", repository.DeviceMeta{UserAgent: "ua"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.TokenVersion)
	_, err = sess.GetOrCreate(ctx, "u1", "devB", repository.DeviceMeta{})
	require.NoError(t, err)

	v, err := sess.BumpVersion(ctx, "u1", "devA")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	b, err := sess.Find(ctx, "u1", "devB")
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.TokenVersion)

	// GetOrCreate no resetea la versión
	again, err := sess.GetOrCreate(ctx, "u1", "devA", repository.DeviceMeta{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.TokenVersion)

	n, err := sess.BumpAllVersions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = sess.BumpVersion(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessions_ConcurrentBumpsAreAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Sessions().GetOrCreate(ctx, "u1", "devA", repository.DeviceMeta{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Sessions().BumpVersion(ctx, "u1", "devA")
		}()
	}
	wg.Wait()

	ds, err := s.Sessions().Find(ctx, "u1", "devA")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ds.TokenVersion)
}

func TestSessions_ListOrderedByLastSeen(t *testing.T) {
	ctx := context.Background()
	s := New()
	sess := s.Sessions()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []string{"d1", "d2", "d3"} {
		_, err := sess.GetOrCreate(ctx, "u1", d, repository.DeviceMeta{})
		require.NoError(t, err)
	}
	require.NoError(t, sess.Touch(ctx, "u1", "d1", repository.DeviceMeta{IP: "10.0.0.1"}, base.Add(3*time.Hour)))
	require.NoError(t, sess.Touch(ctx, "u1", "d2", repository.DeviceMeta{}, base.Add(time.Hour)))
	require.NoError(t, sess.Touch(ctx, "u1", "d3", repository.DeviceMeta{}, base.Add(2*time.Hour)))

	list, err := sess.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"d1", "d3", "d2"}, []string{list[0].DeviceID, list[1].DeviceID, list[2].DeviceID})
	assert.Equal(t, "10.0.0.1", list[0].IP)
}

func TestRefresh_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	rt := s.RefreshTokens()
	now := time.Now()
	require.NoError(t, rt.Create(ctx, repository.RefreshToken{ID: "r1", TokenHash: "h1", IdentityID: "u1", DeviceID: "d", ExpiresAt: now.Add(time.Hour)}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rt.Consume(ctx, "h1", now); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	_, err := rt.Consume(ctx, "h1", now)
	assert.ErrorIs(t, err, repository.ErrAlreadyConsumed)
	_, err = rt.Consume(ctx, "nope", now)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRefresh_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := New()
	rt := s.RefreshTokens()
	now := time.Now()
	require.NoError(t, rt.Create(ctx, repository.RefreshToken{TokenHash: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, rt.Create(ctx, repository.RefreshToken{TokenHash: "new", ExpiresAt: now.Add(time.Minute)}))

	n, err := rt.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = rt.Consume(ctx, "new", now)
	assert.NoError(t, err)
}

func TestRoles_UniquenessAndSystemProtection(t *testing.T) {
	ctx := context.Background()
	s := New()
	roles := s.Roles()

	admin, err := roles.Create(ctx, repository.Role{Name: "super_admin", Category: repository.RoleCategorySystem, IsActive: true, PermissionKeys: []string{"*"}})
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)

	org := strp("org-1")
	viewer, err := roles.Create(ctx, repository.Role{OrganizationID: org, Name: "viewer", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, repository.RoleCategoryCustom, viewer.Category)

	_, err = roles.Create(ctx, repository.Role{OrganizationID: strp("org-1"), Name: "viewer"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	// otro org o alcance global: permitido
	_, err = roles.Create(ctx, repository.Role{OrganizationID: strp("org-2"), Name: "viewer"})
	assert.NoError(t, err)
	_, err = roles.Create(ctx, repository.Role{Name: "viewer"})
	assert.NoError(t, err)

	// tras borrado lógico el nombre queda libre
	require.NoError(t, roles.Delete(ctx, viewer.ID))
	_, err = roles.Create(ctx, repository.Role{OrganizationID: org, Name: "viewer"})
	assert.NoError(t, err)

	deleted, err := roles.GetByID(ctx, viewer.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.False(t, deleted.IsActive)

	assert.ErrorIs(t, roles.Delete(ctx, admin.ID), repository.ErrSystemRole)
	assert.ErrorIs(t, roles.Rename(ctx, admin.ID, "root"), repository.ErrSystemRole)
}
