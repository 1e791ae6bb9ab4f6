package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/store/memory"
)

func newRegistry() *Registry {
	return NewRegistry(memory.New().Sessions())
}

func TestGetOrCreate_GeneratesDeviceID(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	ds, err := r.GetOrCreate(ctx, "u1", "", repository.DeviceMeta{UserAgent: "curl"})
	require.NoError(t, err)
	_, err = uuid.Parse(ds.DeviceID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), ds.TokenVersion)

	found, err := r.Find(ctx, "u1", ds.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, "curl", found.UserAgent)
}

func TestGetOrCreate_KeepsVersionAndRefreshesMeta(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	_, err := r.GetOrCreate(ctx, "u1", "devA", repository.DeviceMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	_, err = r.BumpVersion(ctx, "u1", "devA")
	require.NoError(t, err)

	ds, err := r.GetOrCreate(ctx, "u1", " devA ", repository.DeviceMeta{IP: "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, "devA", ds.DeviceID)
	assert.Equal(t, int64(1), ds.TokenVersion)

	found, err := r.Find(ctx, "u1", "devA")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", found.IP)
}

func TestGetOrCreate_RejectsBadDeviceIDs(t *testing.T) {
	r := newRegistry()
	for _, d := range []string{strings.Repeat("x", MaxDeviceIDLength+1), "dev ice", "dev\x00"} {
		_, err := r.GetOrCreate(context.Background(), "u1", d, repository.DeviceMeta{})
		assert.ErrorIs(t, err, ErrInvalidDeviceID, d)
	}
}

func TestFind_Missing(t *testing.T) {
	r := newRegistry()
	_, err := r.Find(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Find(context.Background(), "u1", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBump_Isolation(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()
	for _, d := range []string{"A", "B"} {
		_, err := r.GetOrCreate(ctx, "u1", d, repository.DeviceMeta{})
		require.NoError(t, err)
	}
	_, err := r.GetOrCreate(ctx, "u2", "A", repository.DeviceMeta{})
	require.NoError(t, err)

	v, err := r.BumpVersion(ctx, "u1", "A")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	b, _ := r.Find(ctx, "u1", "B")
	assert.Equal(t, int64(0), b.TokenVersion)
	other, _ := r.Find(ctx, "u2", "A")
	assert.Equal(t, int64(0), other.TokenVersion)

	n, err := r.BumpAllVersions(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	a, _ := r.Find(ctx, "u1", "A")
	assert.Equal(t, int64(2), a.TokenVersion)
	other, _ = r.Find(ctx, "u2", "A")
	assert.Equal(t, int64(0), other.TokenVersion)
}

func TestList_And_Touch(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	r := newRegistry().WithClock(func() time.Time { return clock })
	_, err := r.GetOrCreate(ctx, "u1", "A", repository.DeviceMeta{})
	require.NoError(t, err)
	_, err = r.GetOrCreate(ctx, "u1", "B", repository.DeviceMeta{})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	require.NoError(t, r.Touch(ctx, "u1", "A", repository.DeviceMeta{UserAgent: "firefox"}))

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].DeviceID)
	assert.Equal(t, "firefox", list[0].UserAgent)

	assert.ErrorIs(t, r.Touch(ctx, "u1", "ghost", repository.DeviceMeta{}), ErrNotFound)
}
