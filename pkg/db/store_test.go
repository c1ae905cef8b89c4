package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscan/pkg/evidence"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func scanResult(address string, score int, at time.Time) *ScanResult {
	return &ScanResult{
		Evidence: evidence.Record{
			Address:    address,
			Chain:      "solana",
			Name:       "Test Token",
			TokenScore: score,
		},
		Summary:   "A token.",
		CreatedAt: at,
	}
}

func TestLatestReturnsNilForUnknownAddress(t *testing.T) {
	store := tempStore(t)

	result, err := store.Latest("neverscanned")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestInsertAndLatest(t *testing.T) {
	store := tempStore(t)

	want := scanResult("addr1", 72, time.Now().UTC().Truncate(time.Second))
	want.Evidence.SentimentScore = evidence.Float(65)
	require.NoError(t, store.Insert(want))

	got, err := store.Latest("addr1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "addr1", got.Evidence.Address)
	assert.Equal(t, 72, got.Evidence.TokenScore)
	assert.Equal(t, "A token.", got.Summary)
	require.NotNil(t, got.Evidence.SentimentScore)
	assert.Equal(t, 65.0, *got.Evidence.SentimentScore)
}

func TestRefreshSupersedes(t *testing.T) {
	store := tempStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(scanResult("addr1", 40, base.Add(-time.Hour))))
	require.NoError(t, store.Insert(scanResult("addr1", 80, base)))

	got, err := store.Latest("addr1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 80, got.Evidence.TokenScore)
}

func TestRecentOnePerAddress(t *testing.T) {
	store := tempStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(scanResult("addr1", 40, base.Add(-2*time.Hour))))
	require.NoError(t, store.Insert(scanResult("addr1", 80, base.Add(-time.Hour))))
	require.NoError(t, store.Insert(scanResult("addr2", 55, base)))

	results, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "addr2", results[0].Evidence.Address)
	assert.Equal(t, "addr1", results[1].Evidence.Address)
	assert.Equal(t, 80, results[1].Evidence.TokenScore)
}

func TestRecentAddresses(t *testing.T) {
	store := tempStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(scanResult("old", 40, base.Add(-time.Hour))))
	require.NoError(t, store.Insert(scanResult("new", 60, base)))

	addrs, err := store.RecentAddresses(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, addrs)
}

func TestStats(t *testing.T) {
	store := tempStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(scanResult("addr1", 40, base)))
	require.NoError(t, store.Insert(scanResult("addr1", 60, base)))
	require.NoError(t, store.Insert(scanResult("addr2", 80, base)))

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalScans)
	assert.Equal(t, int64(2), stats.UniqueAddresses)
	assert.InDelta(t, 60.0, stats.AvgTokenScore, 0.001)
}

func TestPruneKeepsLatestPerAddress(t *testing.T) {
	store := tempStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(scanResult("addr1", 40, base.Add(-48*time.Hour))))
	require.NoError(t, store.Insert(scanResult("addr1", 80, base.Add(-36*time.Hour))))

	pruned, err := store.PruneOlderThan(base.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	got, err := store.Latest("addr1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 80, got.Evidence.TokenScore)
}
