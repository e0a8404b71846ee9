package domain

import (
	"encoding/json"
	"time"
)

// Post represents a single post from the author's feed.
type Post struct {
	// URI is the AT-URI of the post (e.g. at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b).
	URI string

	// CID is the content identifier of the record.
	CID string

	// Text is the post body text used for pattern matching. May be empty.
	Text string

	// IndexedAt is when the PDS indexed this post, normalized to UTC.
	IndexedAt time.Time

	// IsReply is true if the post carries a reply association.
	IsReply bool

	// IsRepost is true if the post's embed is a repost view rather than
	// original content.
	IsRepost bool

	// Raw is the full post view payload as returned by the PDS, retained
	// for backup fidelity.
	Raw json.RawMessage
}

// BackupEntry is one line of the backup ledger, written before the
// corresponding delete call is issued.
type BackupEntry struct {
	URI      string          `json:"uri"`
	Datetime string          `json:"datetime"`
	Post     json.RawMessage `json:"post"`
}

// Result accumulates the counters reported at the end of a run. Scanned is
// pages fetched times page size, an upper bound since the final page may be
// partial.
type Result struct {
	Scanned int
	Matched int
	Deleted int
	Failed  int
}
