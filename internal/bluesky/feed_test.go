package bluesky

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "utc",
			input: "2024-01-01T12:00:00Z",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset aware is converted",
			input: "2024-01-01T12:00:00+02:00",
			want:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds",
			input: "2024-01-01T12:00:00.123Z",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 123000000, time.UTC),
		},
		{
			name:  "offset naive is taken as UTC without shifting",
			input: "2024-01-01T12:00:00",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset naive with fraction",
			input: "2024-01-01T12:00:00.5",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 500000000, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTimestamp(tc.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := parseTimestamp("yesterday-ish")
	require.Error(t, err)
}

func TestClassifyEmbed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want embedKind
	}{
		{"absent", "", embedNone},
		{"null", "null", embedNone},
		{"repost view", `{"$type":"app.bsky.embed.record#view","record":{}}`, embedRepostView},
		{"image embed", `{"$type":"app.bsky.embed.images#view","images":[]}`, embedOther},
		{"untagged object", `{"record":{}}`, embedOther},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyEmbed(json.RawMessage(tc.raw)))
		})
	}
}

func TestDecodePostView(t *testing.T) {
	raw := json.RawMessage(`{
		"uri": "at://did:plc:abc/app.bsky.feed.post/3kxyz",
		"cid": "bafy123",
		"indexedAt": "2024-01-01T12:00:00Z",
		"record": {
			"$type": "app.bsky.feed.post",
			"text": "hello there",
			"createdAt": "2024-01-01T11:59:00Z",
			"reply": {
				"root": {"uri": "at://did:plc:abc/app.bsky.feed.post/root", "cid": "bafyroot"},
				"parent": {"uri": "at://did:plc:abc/app.bsky.feed.post/parent", "cid": "bafyparent"}
			}
		}
	}`)

	post, err := decodePostView(raw)
	require.NoError(t, err)

	assert.Equal(t, "at://did:plc:abc/app.bsky.feed.post/3kxyz", post.URI)
	assert.Equal(t, "bafy123", post.CID)
	assert.Equal(t, "hello there", post.Text)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), post.IndexedAt)
	assert.True(t, post.IsReply)
	assert.False(t, post.IsRepost)
	assert.Equal(t, []byte(raw), []byte(post.Raw), "full payload kept for backup")
}

func TestDecodePostViewRepost(t *testing.T) {
	raw := json.RawMessage(`{
		"uri": "at://did:plc:abc/app.bsky.feed.post/3kxyz",
		"cid": "bafy123",
		"indexedAt": "2024-01-01T12:00:00Z",
		"record": {"$type": "app.bsky.feed.post", "text": ""},
		"embed": {"$type": "app.bsky.embed.record#view", "record": {}}
	}`)

	post, err := decodePostView(raw)
	require.NoError(t, err)
	assert.True(t, post.IsRepost)
	assert.False(t, post.IsReply)
}

func TestDecodePostViewBadTimestamp(t *testing.T) {
	raw := json.RawMessage(`{"uri":"u","cid":"c","indexedAt":"not-a-time","record":{"text":""}}`)
	_, err := decodePostView(raw)
	require.Error(t, err)
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "3kxyz", recordKey("at://did:plc:abc/app.bsky.feed.post/3kxyz"))
	assert.Equal(t, "bare", recordKey("bare"))
}
