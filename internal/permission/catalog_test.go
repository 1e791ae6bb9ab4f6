package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	m, p, a, err := ParseKey("users:manage:lock")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "manage", "lock"}, []string{m, p, a})

	for _, bad := range []string{"", "users", "users:manage", "a:b:c:d", "a::c", " a:b:c"} {
		_, _, _, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Entry{{Key: "a:b:c"}, {Key: "a:b:c"}})
	assert.ErrorContains(t, err, "duplicated")
}

func TestCatalog_LookupValidateKeys(t *testing.T) {
	c := MustCatalog([]Entry{{Key: "b:x:view"}, {Key: "a:y:edit", Description: "Edit"}})

	assert.Equal(t, []string{"a:y:edit", "b:x:view"}, c.Keys())
	e, ok := c.Lookup("a:y:edit")
	require.True(t, ok)
	assert.Equal(t, Entry{Key: "a:y:edit", Module: "a", Page: "y", Action: "edit", Description: "Edit"}, e)

	assert.NoError(t, c.Validate([]string{"a:y:edit", Wildcard}))
	assert.ErrorContains(t, c.Validate([]string{"a:y:edit", "zzz:y:edit"}), "zzz:y:edit")

	keys := c.Keys()
	keys[0] = "mutated"
	assert.Equal(t, "a:y:edit", c.Keys()[0])
}

func TestCatalog_Tree(t *testing.T) {
	c := MustCatalog([]Entry{{Key: "users:list:view"}, {Key: "users:list:create"}, {Key: "users:detail:edit"}, {Key: "roles:list:view"}})
	tree := c.Tree()
	require.Len(t, tree, 2)
	assert.Equal(t, "roles", tree[0].Name)
	assert.Equal(t, "users", tree[1].Name)
	require.Len(t, tree[1].Pages, 2)
	assert.Equal(t, "detail", tree[1].Pages[0].Name)
	assert.Len(t, tree[1].Pages[1].Actions, 2)
}

func TestDefaultCatalog(t *testing.T) {
	assert.Greater(t, DefaultCatalog.Len(), 10)
	for _, k := range []string{KeyUsersLock, KeyUsersUnlock, KeyUsersViewDevices} {
		_, ok := DefaultCatalog.Lookup(k)
		assert.True(t, ok, k)
	}
}
