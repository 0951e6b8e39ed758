package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func TestGetSetJSON(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	found, err := GetJSON(ctx, UserKey(1), &cachedUser{})
	require.NoError(t, err)
	assert.False(t, found)

	want := cachedUser{ID: 1, Username: "ansel"}
	require.NoError(t, SetJSON(ctx, UserKey(1), want, UserTTL))

	var got cachedUser
	found, err = GetJSON(ctx, UserKey(1), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestGetSetJSON_NilClientDegrades(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey(7), cachedUser{ID: 7}, PostTTL))

	var got cachedUser
	found, err := GetJSON(ctx, PostKey(7), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAside(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			fetches++
			*dest = cachedUser{ID: 3, Username: "dorothea"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(3), &first, UserTTL, fetch(&first)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, "dorothea", first.Username)

	// Second call is served from the cache.
	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(3), &second, UserTTL, fetch(&second)))
	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)

	// After the TTL the source is consulted again.
	mr.FastForward(UserTTL + time.Second)
	var third cachedUser
	require.NoError(t, Aside(ctx, UserKey(3), &third, UserTTL, fetch(&third)))
	assert.Equal(t, 2, fetches)
}

func TestAside_FetchErrorPropagates(t *testing.T) {
	setupMiniredis(t)

	wantErr := errors.New("db down")
	var dest cachedUser
	err := Aside(context.Background(), UserKey(9), &dest, UserTTL, func() error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestInvalidate(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(4), cachedUser{ID: 4}, UserTTL))
	require.NoError(t, SetJSON(ctx, PostKey(5), cachedUser{ID: 5}, PostTTL))

	InvalidateUser(ctx, 4)
	InvalidatePost(ctx, 5)

	var got cachedUser
	found, err := GetJSON(ctx, UserKey(4), &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = GetJSON(ctx, PostKey(5), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:42", UserKey(42))
	assert.Equal(t, "post:42", PostKey(42))
}
