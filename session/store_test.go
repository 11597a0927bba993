package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStoreRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, time.Hour)
	ctx := context.Background()

	sess, err := store.Load(ctx, session.GuestKey("abc"))
	require.NoError(t, err)
	assert.True(t, sess.Cart().IsEmpty())

	sess.Cart().Set(4, 2)
	sess.LastPurchase = "guest-4"
	sess.PreventDoublePurchase = true
	require.NoError(t, store.Save(ctx, sess))

	again, err := store.Load(ctx, session.GuestKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, 2, again.Cart().Quantity(4))
	assert.Equal(t, "guest-4", again.LastPurchase)
	assert.True(t, again.PreventDoublePurchase)

	again.Cart().Set(4, 5)
	again.PreventDoublePurchase = false
	require.NoError(t, store.Save(ctx, again))

	third, err := store.Load(ctx, session.GuestKey("abc"))
	require.NoError(t, err)
	assert.Equal(t, 5, third.Cart().Quantity(4))
	assert.False(t, third.PreventDoublePurchase)

	require.NoError(t, store.Delete(ctx, session.GuestKey("abc")))
	gone, err := store.Load(ctx, session.GuestKey("abc"))
	require.NoError(t, err)
	assert.True(t, gone.Cart().IsEmpty())
}

func TestGormStoreExpiredSessionIsFresh(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, -time.Minute)
	ctx := context.Background()

	sess, err := store.Load(ctx, "k")
	require.NoError(t, err)
	sess.Cart().Set(1, 1)
	require.NoError(t, store.Save(ctx, sess))

	loaded, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, loaded.Cart().IsEmpty())

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:42", session.UserKey(42))
	assert.Equal(t, "guest:g1", session.GuestKey("g1"))
}
