package domain

import "context"

// FeedSource produces successive pages of an actor's post history.
type FeedSource interface {
	// FetchPage retrieves one page of the actor's feed. An empty cursor
	// starts from the newest posts; the returned cursor is opaque and empty
	// once the feed is exhausted. Pages must be consumed in order.
	FetchPage(ctx context.Context, actor, cursor string, limit int) ([]Post, string, error)
}

// RecordDeleter removes a single post record by its AT-URI.
type RecordDeleter interface {
	DeletePost(ctx context.Context, uri string) error
}
