package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/bluesky-sweep/internal/domain"
)

func TestBackupAppendsParseableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.jsonl")

	b, err := OpenBackup(path)
	require.NoError(t, err)

	entries := []domain.BackupEntry{
		{URI: "at://did:plc:a/app.bsky.feed.post/1", Datetime: "2020-01-01T00:00:00Z", Post: json.RawMessage(`{"text":"one"}`)},
		{URI: "at://did:plc:a/app.bsky.feed.post/2", Datetime: "2020-01-02T00:00:00Z", Post: json.RawMessage(`{"text":"two"}`)},
	}
	for _, e := range entries {
		require.NoError(t, b.Append(e))
	}
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var got domain.BackupEntry
		require.NoError(t, json.Unmarshal([]byte(line), &got), "each line is self-contained")
		assert.Equal(t, entries[i].URI, got.URI)
		assert.Equal(t, entries[i].Datetime, got.Datetime)
		assert.JSONEq(t, string(entries[i].Post), string(got.Post))
	}
}

func TestBackupAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.jsonl")

	for i := 0; i < 2; i++ {
		b, err := OpenBackup(path)
		require.NoError(t, err)
		require.NoError(t, b.Append(domain.BackupEntry{URI: "uri", Post: json.RawMessage(`{}`)}))
		require.NoError(t, b.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"), "prior entries stay intact")
}

func TestProcessLogRecordFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	l, err := OpenProcessLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), "hello\nworld"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04 05:06:07 UTC  hello world\n---\n", string(data))
}

func TestProcessLogRecordConvertsToUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	l, err := OpenProcessLog(path)
	require.NoError(t, err)
	offset := time.FixedZone("CEST", 2*60*60)
	require.NoError(t, l.Record(time.Date(2024, 3, 4, 7, 6, 7, 0, offset), "x"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "2024-03-04 05:06:07 UTC"))
}
