// Package sweep implements the fetch-filter-delete pipeline: cursor
// pagination over the author feed, predicate filtering, the write-ahead
// backup ledger, and the partial-failure-tolerant deletion loop.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/blackmichael/bluesky-sweep/internal/domain"
	"github.com/blackmichael/bluesky-sweep/internal/ledger"
)

// pageSize is the fixed getAuthorFeed page size.
const pageSize = 50

// Options control a single run.
type Options struct {
	// Actor is the handle or DID whose feed is swept.
	Actor string

	// Preview logs candidates without backing up or deleting.
	Preview bool

	// LogFile is the process log path.
	LogFile string

	// BackupFile is the backup ledger path. Only opened when not previewing.
	BackupFile string

	// Quiet hides the page-fetch progress indicator. The per-post indicator
	// stays visible so a destructive run is never silent.
	Quiet bool
}

// Service runs the sweep pipeline over injected feed and deleter ports.
type Service struct {
	feed    domain.FeedSource
	deleter domain.RecordDeleter
	logger  *slog.Logger
}

// New creates a sweep service.
func New(feed domain.FeedSource, deleter domain.RecordDeleter, logger *slog.Logger) *Service {
	return &Service{
		feed:    feed,
		deleter: deleter,
		logger:  logger,
	}
}

// Run executes one sweep: paginate and filter the actor's feed, then process
// the matched posts in service-return order. A pagination failure aborts the
// run with no result; per-post deletion failures are counted and the run
// continues. The returned result's counters satisfy
// Deleted+Failed == Matched when not previewing.
func (s *Service) Run(ctx context.Context, criteria *domain.Criteria, opts Options) (*domain.Result, error) {
	result := &domain.Result{}

	matched, err := s.collect(ctx, criteria, opts, result)
	if err != nil {
		return nil, err
	}
	result.Matched = len(matched)

	if len(matched) == 0 {
		s.logger.Info("no posts to delete or preview")
		return result, nil
	}

	s.logger.Info("writing details", "log_file", opts.LogFile)
	plog, err := ledger.OpenProcessLog(opts.LogFile)
	if err != nil {
		return nil, err
	}
	defer plog.Close()

	var backup *ledger.Backup
	if !opts.Preview {
		backup, err = ledger.OpenBackup(opts.BackupFile)
		if err != nil {
			return nil, err
		}
		defer backup.Close()
	}

	bar := progressbar.NewOptions(len(matched),
		progressbar.OptionSetDescription("processing posts"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	for _, post := range matched {
		if err := plog.Record(post.IndexedAt, post.Text); err != nil {
			return nil, fmt.Errorf("write process log: %w", err)
		}

		if !opts.Preview {
			// backup is written before the delete is attempted; an entry for
			// a post whose delete then fails is intentional over-backup
			entry := domain.BackupEntry{
				URI:      post.URI,
				Datetime: post.IndexedAt.Format(time.RFC3339),
				Post:     post.Raw,
			}
			if err := backup.Append(entry); err != nil {
				return nil, fmt.Errorf("write backup entry: %w", err)
			}

			if err := s.deleter.DeletePost(ctx, post.URI); err != nil {
				s.logger.Warn("failed deleting post", "uri", post.URI, "error", err)
				result.Failed++
			} else {
				result.Deleted++
			}
		}

		bar.Add(1)
	}

	return result, nil
}

// collect consumes the feed page by page and returns the matched posts in
// service-return order. The cursor sequence is non-restartable, so any fetch
// error is fatal to the run.
func (s *Service) collect(ctx context.Context, criteria *domain.Criteria, opts Options, result *domain.Result) ([]domain.Post, error) {
	pageWriter := io.Writer(os.Stderr)
	if opts.Quiet {
		pageWriter = io.Discard
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("fetching pages"),
		progressbar.OptionSetWriter(pageWriter),
		progressbar.OptionSpinnerType(14),
	)
	defer bar.Finish()

	var matched []domain.Post
	cursor := ""
	for {
		posts, nextCursor, err := s.feed.FetchPage(ctx, opts.Actor, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch feed page: %w", err)
		}
		result.Scanned += pageSize
		bar.Add(1)

		for i := range posts {
			if criteria.Matches(&posts[i]) {
				matched = append(matched, posts[i])
			}
		}

		if nextCursor == "" {
			return matched, nil
		}
		cursor = nextCursor
	}
}
