package permission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/cache"
	"github.com/dropDatabas3/orgauth/internal/domain/repository"
)

type fakeRoles struct {
	roles map[string]*repository.Role
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (f *fakeRoles) GetByID(ctx context.Context, id string) (*repository.Role, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func strp(s string) *string { return &s }

func identityWithRole(roleID string, direct ...string) *repository.Identity {
	it := &repository.Identity{ID: "u1", OrganizationID: "org-1", Permissions: direct, CanLogin: true}
	if roleID != "" {
		it.RoleID = strp(roleID)
	}
	return it
}

func TestScenarioA_RoleKeys(t *testing.T) {
	roles := &fakeRoles{roles: map[string]*repository.Role{
		"viewer": {ID: "viewer", Name: "viewer", IsActive: true, PermissionKeys: []string{"users:list:view"}},
	}}
	r := NewResolver(roles)
	u1 := identityWithRole("viewer")

	assert.True(t, r.Authorize(context.Background(), u1, "users:list:view"))
	assert.False(t, r.Authorize(context.Background(), u1, "users:detail:delete"))
}

func TestWildcardShortCircuit(t *testing.T) {
	roles := &fakeRoles{roles: map[string]*repository.Role{
		"wild":  {ID: "wild", Name: "ops", IsActive: true, PermissionKeys: []string{"users:list:view", "*"}},
		"super": {ID: "super", Name: SuperAdminRole, IsActive: true},
	}}
	r := NewResolver(roles)
	inputs := []string{"any:random:key", "", "   ", "not-a-key", "users:detail:delete"}

	for _, who := range []*repository.Identity{
		identityWithRole("wild"),
		identityWithRole("super"),
		identityWithRole("", "*"),
		identityWithRole("missing-role", "*"),
	} {
		for _, k := range inputs {
			assert.True(t, r.Authorize(context.Background(), who, k), "key %q", k)
		}
		assert.True(t, r.Resolve(context.Background(), who, nil).IsAll())
	}
}

func TestUnionOfRoleAndDirectKeys(t *testing.T) {
	role := &repository.Role{ID: "r", Name: "editor", IsActive: true,
		PermissionKeys: []string{"roles:list:view", "users:list:view"}}
	r := NewResolver(nil)
	it := identityWithRole("", "users:list:view", "users:detail:edit")

	set := r.Resolve(context.Background(), it, role)
	assert.Equal(t, []string{"roles:list:view", "users:detail:edit", "users:list:view"}, set.Keys())
}

func TestInactiveOrDeletedRoleGrantsNothing(t *testing.T) {
	r := NewResolver(nil)
	it := identityWithRole("", "users:list:view")
	for _, role := range []*repository.Role{
		{Name: SuperAdminRole, IsActive: false},
		{Name: SuperAdminRole, IsActive: true, IsDeleted: true},
		{Name: "x", IsActive: false, PermissionKeys: []string{"*"}},
	} {
		set := r.Resolve(context.Background(), it, role)
		assert.False(t, set.IsAll())
		assert.Equal(t, []string{"users:list:view"}, set.Keys())
	}
}

func TestMissingRoleKeepsDirectKeys(t *testing.T) {
	r := NewResolver(&fakeRoles{roles: map[string]*repository.Role{}})
	it := identityWithRole("ghost", "users:list:view")
	assert.True(t, r.Authorize(context.Background(), it, "users:list:view"))
}

func TestLookupFailureFailsClosed(t *testing.T) {
	r := NewResolver(&fakeRoles{err: errors.New("db down")})
	it := identityWithRole("viewer", "users:list:view", "*")

	set := r.Resolve(context.Background(), it, nil)
	assert.False(t, set.IsAll())
	assert.Equal(t, 0, set.Len())
	assert.False(t, r.Authorize(context.Background(), it, "users:list:view"))
}

func TestNoLookupConfiguredFailsClosed(t *testing.T) {
	r := NewResolver(nil)
	assert.False(t, r.Authorize(context.Background(), identityWithRole("viewer", "a:b:c"), "a:b:c"))
}

func TestNilIdentity(t *testing.T) {
	assert.False(t, NewResolver(nil).Authorize(context.Background(), nil, ""))
}

func TestCheck_DeniedError(t *testing.T) {
	r := NewResolver(nil)
	err := r.Check(context.Background(), identityWithRole(""), "users:manage:lock")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "users:manage:lock", denied.Key)

	assert.NoError(t, r.Check(context.Background(), identityWithRole("", "users:manage:lock"), "users:manage:lock"))
}

func TestIsSuperAdmin(t *testing.T) {
	assert.True(t, IsSuperAdmin(&repository.Role{Name: SuperAdminRole, IsActive: true}))
	assert.False(t, IsSuperAdmin(&repository.Role{Name: "admin", IsActive: true}))
	assert.False(t, IsSuperAdmin(nil))
}

func TestCachedRoles_CachesAndCollapses(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRoles{delay: 20 * time.Millisecond, roles: map[string]*repository.Role{
		"viewer": {ID: "viewer", Name: "viewer", IsActive: true, PermissionKeys: []string{"users:list:view"}},
	}}
	cached := NewCachedRoles(backend, cache.NewMemory("perm", 0), 100*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := cached.GetByID(ctx, "viewer")
			assert.NoError(t, err)
			assert.Equal(t, []string{"users:list:view"}, role.PermissionKeys)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), backend.calls.Load())

	_, err := cached.GetByID(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.calls.Load())

	// Vencido el ttl se vuelve a leer el rol
	time.Sleep(150 * time.Millisecond)
	_, err = cached.GetByID(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, int32(2), backend.calls.Load())
}

func TestCachedRoles_DoesNotCacheNotFound(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRoles{roles: map[string]*repository.Role{}}
	cached := NewCachedRoles(backend, cache.NewMemory("", 0), 0)

	_, err := cached.GetByID(ctx, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = cached.GetByID(ctx, "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, int32(2), backend.calls.Load())
}
