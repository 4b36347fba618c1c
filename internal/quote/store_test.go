package quote_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quotecalc/internal/invoice"
	"github.com/noah-isme/quotecalc/internal/quote"
)

func exerciseStore(t *testing.T, store quote.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, quote.ErrNoState)

	snap := quote.NewSnapshot(awkwardRows(), invoice.Config{ClientName: "ACME"})
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, snap, loaded)
	require.NoError(t, loaded.Verify())

	snap.Rows = snap.Rows[:1]
	snap = quote.NewSnapshot(snap.Rows, snap.InvoiceConfig)
	require.NoError(t, store.Save(ctx, snap))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Rows, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, quote.NewMemoryStore())
}

func TestMemoryStoreIsolatesCallerEdits(t *testing.T) {
	ctx := context.Background()
	store := quote.NewMemoryStore()
	snap := quote.NewSnapshot(awkwardRows(), invoice.Config{})
	require.NoError(t, store.Save(ctx, snap))
	snap.Rows[0].Quantity = 999

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Rows[0].Quantity)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quote.json")
	store := quote.NewFileStore(path)
	require.NoError(t, store.Ping(context.Background()))
	exerciseStore(t, store)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quote.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := quote.NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, quote.ErrNoState)
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := quote.NewRedisStore(client, "", 0)
	require.NoError(t, store.Ping(context.Background()))
	exerciseStore(t, store)
	require.True(t, mr.Exists(quote.DefaultRedisKey))
	require.Zero(t, mr.TTL(quote.DefaultRedisKey))
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := quote.NewRedisStore(client, "quotes:test", time.Hour)
	require.NoError(t, store.Save(context.Background(), quote.NewSnapshot(nil, invoice.Config{})))
	require.Equal(t, time.Hour, mr.TTL("quotes:test"))

	mr.FastForward(2 * time.Hour)
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, quote.ErrNoState)
}
