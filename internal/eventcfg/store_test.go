package eventcfg_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/eventcfg"
)

func newStoreDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "retiro.json"), loadFixture(t), 0o600))
	return dir
}

func TestStoreLoadsFromDisk(t *testing.T) {
	store := &eventcfg.Store{Dir: newStoreDir(t), Logger: zerolog.Nop()}

	doc, err := store.Load(context.Background(), "Retiro")
	require.NoError(t, err)
	require.Equal(t, "retiro", doc.Event.Slug)

	_, err = store.Load(context.Background(), "missing")
	require.ErrorIs(t, err, eventcfg.ErrEventNotFound)

	_, err = store.Load(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, eventcfg.ErrInvalidSlug)
}

func TestStoreCachesDocuments(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	dir := newStoreDir(t)
	store := &eventcfg.Store{Dir: dir, Cache: eventcfg.NewCache(client, time.Minute), Logger: zerolog.Nop()}
	ctx := context.Background()

	_, err := store.Load(ctx, "retiro")
	require.NoError(t, err)
	require.True(t, mr.Exists("eventcfg:retiro"))

	// Served from cache even after the file disappears.
	require.NoError(t, os.Remove(filepath.Join(dir, "retiro.json")))
	doc, err := store.Load(ctx, "retiro")
	require.NoError(t, err)
	require.Equal(t, "Retiro de Primavera", doc.Event.Name)

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "retiro")
	require.ErrorIs(t, err, eventcfg.ErrEventNotFound)
}

func TestStoreDropsCorruptCacheEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("eventcfg:retiro", "{}"))

	store := &eventcfg.Store{Dir: newStoreDir(t), Cache: eventcfg.NewCache(client, time.Minute), Logger: zerolog.Nop()}
	_, err := store.Load(context.Background(), "retiro")
	require.ErrorIs(t, err, eventcfg.ErrConfigMissingField)
	require.False(t, mr.Exists("eventcfg:retiro"))
}
