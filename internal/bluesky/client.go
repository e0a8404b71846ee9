package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/blackmichael/bluesky-sweep/internal/domain"
	"github.com/blackmichael/bluesky-sweep/internal/retry"
)

const defaultPDS = "https://bsky.social"

// postCollection is the repo collection that holds feed posts.
const postCollection = "app.bsky.feed.post"

// Client is a minimal BlueSky/AT Protocol API client for sweeping a user's
// post history. Feed fetches and record deletes share one rate limiter and
// one retry policy.
type Client struct {
	pds        string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      retry.Policy
	logger     *slog.Logger

	// populated after Login
	accessJwt string
	did       string
}

// NewClient creates a new BlueSky API client. If pds is empty, it defaults to
// https://bsky.social.
func NewClient(pds string, policy retry.Policy, logger *slog.Logger) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// keeps a long sweep well clear of PDS rate limits
		limiter: rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		retry:   policy,
		logger:  logger,
	}
}

// Login authenticates with the PDS and stores the session token. Use an App
// Password, not your account password. A failure here is fatal to the run;
// login is not retried.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/xrpc/com.atproto.server.createSession", body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.accessJwt = resp.AccessJwt
	c.did = resp.DID
	return nil
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	return c.did
}

// FetchPage retrieves one page of the actor's feed via
// app.bsky.feed.getAuthorFeed. An empty cursor starts from the newest posts;
// the returned cursor is empty once the feed is exhausted. Transient failures
// are retried per the client's policy; an exhausted retry propagates so the
// caller can abort, since the cursor position would be unrecoverable.
func (c *Client) FetchPage(ctx context.Context, actor, cursor string, limit int) ([]domain.Post, string, error) {
	if c.accessJwt == "" {
		return nil, "", fmt.Errorf("not authenticated: call Login first")
	}

	query := url.Values{}
	query.Set("actor", actor)
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var resp authorFeedResponse
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		return retryableErr(c.get(ctx, "/xrpc/app.bsky.feed.getAuthorFeed", query, &resp))
	})
	if err != nil {
		return nil, "", fmt.Errorf("get author feed: %w", err)
	}

	posts := make([]domain.Post, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		post, err := decodePostView(item.Post)
		if err != nil {
			c.logger.Debug("skipping undecodable feed item", "error", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, resp.Cursor, nil
}

// DeletePost removes a post record from the authenticated user's repo via
// com.atproto.repo.deleteRecord. The record key is the final path segment of
// the AT-URI. Transient failures are retried; the caller decides whether an
// exhausted retry aborts the run.
func (c *Client) DeletePost(ctx context.Context, uri string) error {
	if c.accessJwt == "" {
		return fmt.Errorf("not authenticated: call Login first")
	}

	body := deleteRecordRequest{
		Repo:       c.did,
		Collection: postCollection,
		RKey:       recordKey(uri),
	}

	var resp json.RawMessage
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		return retryableErr(c.post(ctx, "/xrpc/com.atproto.repo.deleteRecord", body, &resp))
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

// recordKey extracts the rkey from an AT-URI: everything after the last '/'.
func recordKey(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// retryableErr passes transient failures through to the retry policy and
// marks everything else permanent. Transport errors and HTTP 429/5xx are
// transient; other API errors are not.
func retryableErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Transient() {
		return retry.Permanent(err)
	}
	return err
}

// APIError is a non-2xx XRPC response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed on retry.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pds+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type deleteRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}
