package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/security/password"
	"github.com/dropDatabas3/orgauth/internal/store/memory"
)

const seedYAML = `
roles:
  - id: role-super
    name: super_admin
    category: system
    priority: 100
    permissions: ["*"]
  - id: role-viewer
    organization: org-1
    name: viewer
    permissions:
      - users:list:view
      - branches:list:view
users:
  - id: u-root
    organization: org-1
    role: role-super
    username: root
    email: Root@Example.com
    password: Secreta123
  - organization: org-1
    role: role-viewer
    user_id: "1001"
    username: ana
    password: Secreta123
    can_login: false
`

func deps(st *memory.Store) Deps {
	return Deps{
		Roles:        st.Roles(),
		Identities:   st.Identities(),
		Provisioning: st.Provisioning(),
		Params:       password.Fast,
	}
}

func TestApply_CreatesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	f, err := Parse([]byte(seedYAML))
	require.NoError(t, err)

	rep, err := Apply(ctx, deps(st), f)
	require.NoError(t, err)
	assert.Equal(t, Report{RolesCreated: 2, UsersCreated: 2}, rep)

	root, err := st.Identities().GetByID(ctx, "u-root")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", root.Email)
	assert.True(t, root.CanLogin)
	require.NotNil(t, root.RoleID)

	role, err := st.Roles().GetByID(ctx, *root.RoleID)
	require.NoError(t, err)
	assert.True(t, permission.IsSuperAdmin(role))

	rep, err = Apply(ctx, deps(st), f)
	require.NoError(t, err)
	assert.Equal(t, Report{RolesSkipped: 2, UsersSkipped: 2}, rep)
}

func TestApply_SeededPasswordVerifies(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	f, err := Parse([]byte(seedYAML))
	require.NoError(t, err)
	_, err = Apply(ctx, deps(st), f)
	require.NoError(t, err)

	cred, err := st.Credentials().GetByIdentityID(ctx, "u-root")
	require.NoError(t, err)
	assert.True(t, password.Verify("Secreta123", cred.PasswordHash))
}

func TestValidate_RejectsUnknownKeys(t *testing.T) {
	f, err := Parse([]byte(`
roles:
  - id: r1
    name: broken
    permissions: ["users:list:view", "users:list:fly"]
users:
  - organization: org-1
    username: x
    password: p
    permissions: ["nope:nope:nope"]
`))
	require.NoError(t, err)

	err = f.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users:list:fly")
	assert.Contains(t, err.Error(), "nope:nope:nope")

	_, err = Apply(context.Background(), deps(memory.New()), f)
	require.Error(t, err)
}

func TestValidate_RequiredFields(t *testing.T) {
	f := &SeedFile{
		Roles: []SeedRole{{Name: "sin-id"}},
		Users: []SeedUser{{Username: "x"}},
	}
	err := f.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id and name are required")
	assert.Contains(t, err.Error(), "organization, username and password are required")
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("roles:\n  - id: r\n    nmae: typo\n"))
	require.Error(t, err)
}

func TestApply_MissingRoleReference(t *testing.T) {
	f := &SeedFile{Users: []SeedUser{{Organization: "o", Username: "x", Password: "p", Role: "ghost"}}}
	_, err := Apply(context.Background(), deps(memory.New()), f)
	require.Error(t, err)
}
