package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/crawlkit/crawlkit/internal/crawler"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "crawler.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func record(url, hash string) crawler.ContentRecord {
	return crawler.ContentRecord{
		URL:         url,
		Title:       "Page",
		ContentHash: hash,
		SourceHost:  "example.com",
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestInsertResultRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	status, err := store.InsertResult(ctx, record("https://example.com/a", "hash-a"))
	require.NoError(t, err)
	require.Equal(t, crawler.Inserted, status)
}

func TestInsertResultDuplicateContentHash(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.InsertResult(ctx, record("https://example.com/a", "shared-hash"))
	require.NoError(t, err)

	status, err := store.InsertResult(ctx, record("https://example.com/b", "shared-hash"))
	require.NoError(t, err, "duplicate fingerprint is a status, not an error")
	require.Equal(t, crawler.DuplicateContent, status)
}

func TestInsertResultDuplicateURL(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.InsertResult(ctx, record("https://example.com/a", "hash-1"))
	require.NoError(t, err)

	status, err := store.InsertResult(ctx, record("https://example.com/a", "hash-2"))
	require.NoError(t, err)
	require.Equal(t, crawler.DuplicateURL, status)
}

func TestAppendLog(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendLog(ctx, crawler.LogEntry{
		URL:       "https://example.com/a",
		Status:    crawler.StatusSuccess,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}))
	require.NoError(t, store.AppendLog(ctx, crawler.LogEntry{
		URL:         "https://example.com/b",
		Status:      crawler.StatusError,
		ErrorDetail: "dial timeout",
		CreatedAt:   time.Unix(1700000001, 0).UTC(),
	}))

	var count int
	err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawl_logs").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var detail *string
	err = store.db.QueryRowContext(ctx,
		"SELECT error FROM crawl_logs WHERE status = 'success'").Scan(&detail)
	require.NoError(t, err)
	require.Nil(t, detail, "empty error detail must be stored as NULL")
}

func TestSchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "crawler.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = first.InsertResult(ctx, record("https://example.com/a", "hash-a"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close()) }()

	// Constraints persist across reopen: same hash is still a duplicate.
	status, err := second.InsertResult(ctx, record("https://example.com/b", "hash-a"))
	require.NoError(t, err)
	require.Equal(t, crawler.DuplicateContent, status)
}
