package bluesky

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackmichael/bluesky-sweep/internal/domain"
)

// repostViewType is the $type tag a post view's embed carries when the post
// is a repost/share wrapper rather than original content.
const repostViewType = "app.bsky.embed.record#view"

// authorFeedResponse is the raw body of app.bsky.feed.getAuthorFeed.
type authorFeedResponse struct {
	Cursor string     `json:"cursor"`
	Feed   []feedItem `json:"feed"`
}

// feedItem keeps the post view raw so the full payload survives into the
// backup ledger untouched.
type feedItem struct {
	Post json.RawMessage `json:"post"`
}

// postView is the subset of app.bsky.feed.defs#postView the sweep needs.
type postView struct {
	URI       string          `json:"uri"`
	CID       string          `json:"cid"`
	IndexedAt string          `json:"indexedAt"`
	Record    postRecord      `json:"record"`
	Embed     json.RawMessage `json:"embed"`
}

// postRecord is the parsed content of an app.bsky.feed.post record.
type postRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Reply     *replyRef `json:"reply,omitempty"`
}

// replyRef contains references to the parent and root of a reply chain.
type replyRef struct {
	Root   strongRef `json:"root"`
	Parent strongRef `json:"parent"`
}

// strongRef is a reference to a specific version of a record.
type strongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// embedKind is the closed classification of a post view's embed.
type embedKind int

const (
	embedNone embedKind = iota
	embedRepostView
	embedOther
)

// classifyEmbed decodes the embed's $type tag once, at the point the post is
// received.
func classifyEmbed(raw json.RawMessage) embedKind {
	if len(raw) == 0 || string(raw) == "null" {
		return embedNone
	}
	var envelope struct {
		Type string `json:"$type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return embedOther
	}
	if envelope.Type == repostViewType {
		return embedRepostView
	}
	return embedOther
}

// decodePostView converts a raw post view into a domain.Post, deriving the
// reply and repost flags and keeping the full view payload for backup
// fidelity.
func decodePostView(raw json.RawMessage) (domain.Post, error) {
	var view postView
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.Post{}, fmt.Errorf("unmarshal post view: %w", err)
	}

	indexedAt, err := parseTimestamp(view.IndexedAt)
	if err != nil {
		return domain.Post{}, fmt.Errorf("parse indexedAt %q: %w", view.IndexedAt, err)
	}

	return domain.Post{
		URI:       view.URI,
		CID:       view.CID,
		Text:      view.Record.Text,
		IndexedAt: indexedAt,
		IsReply:   view.Record.Reply != nil,
		IsRepost:  classifyEmbed(view.Embed) == embedRepostView,
		Raw:       raw,
	}, nil
}

// offsetNaiveLayouts cover timestamps that arrive without an explicit offset.
// time.Parse leaves these in UTC, which is the intended reading: attach UTC,
// do not shift.
var offsetNaiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp normalizes a PDS timestamp to UTC. Offset-aware values are
// converted; offset-naive values are taken as already UTC.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range offsetNaiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}
