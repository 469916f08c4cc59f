package mattermost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Config holds configuration for the Mattermost client.
type Config struct {
	BaseURL   string // API base URL, e.g. https://mm.example.com/api/v4 (required)
	Token     string // personal access token (required)
	VerifySSL bool   // TLS certificate verification toggle
}

// Client talks to the Mattermost REST API. It owns the retrying transport
// and the per-run identity cache.
type Client struct {
	baseURL string
	http    *http.Client
	users   *userCache
	logger  *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("API token is required")
	}

	if !cfg.VerifySSL {
		logger.Warn("TLS certificate verification is disabled")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		// No client-level timeout: each call is bounded by the transport's
		// retry budget, and backoff waits must not be cut short.
		http: &http.Client{
			Transport: newRetryTransport(cfg.Token, cfg.VerifySSL, logger),
		},
		users:  newUserCache(),
		logger: logger,
	}, nil
}

// get performs one GET against the API and decodes the JSON body into out.
// 404 maps to ErrNotFound, any other non-2xx to RequestError; both are
// returned after the transport has spent its retry budget.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// Ping probes server connectivity and logs the reported version.
func (c *Client) Ping(ctx context.Context) error {
	var ping PingResponse
	if err := c.get(ctx, "/system/ping", &ping); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	c.logger.Info("Connected to server",
		zap.String("status", ping.Status),
		zap.String("version", ping.Version))
	return nil
}

// Me returns the acting principal behind the API token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if err := c.get(ctx, "/users/me", &u); err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	c.users.put(u)
	return u, nil
}

// User resolves a user by id, cache-first. A cache miss performs one network
// call and populates the cache before returning.
func (c *Client) User(ctx context.Context, id string) (User, error) {
	if u, ok := c.users.get(id); ok {
		return u, nil
	}

	var u User
	if err := c.get(ctx, "/users/"+id, &u); err != nil {
		return User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	c.users.put(u)
	return u, nil
}

// Channel returns metadata for one channel.
func (c *Client) Channel(ctx context.Context, id string) (ChannelInfo, error) {
	var ch ChannelInfo
	if err := c.get(ctx, "/channels/"+id, &ch); err != nil {
		return ChannelInfo{}, fmt.Errorf("failed to get channel %s: %w", id, err)
	}
	return ch, nil
}

// PostsPage fetches one page of channel posts in the listing's declared
// order. An empty batch signals end of pagination.
func (c *Client) PostsPage(ctx context.Context, channelID string, page, perPage int, includeDeleted bool) (PostBatch, error) {
	path := fmt.Sprintf("/channels/%s/posts?page=%d&per_page=%d", channelID, page, perPage)
	if includeDeleted {
		path += "&include_deleted=true"
	}

	var listing postListing
	if err := c.get(ctx, path, &listing); err != nil {
		return PostBatch{}, fmt.Errorf("failed to get posts page %d: %w", page, err)
	}
	return PostBatch{Posts: listing.flatten(), HasNext: listing.HasNext}, nil
}

// Thread fetches every post belonging to the thread anchored at rootID.
// Used to backfill a reply whose root was never paged.
func (c *Client) Thread(ctx context.Context, rootID string) ([]RawPost, error) {
	var listing postListing
	if err := c.get(ctx, "/posts/"+rootID+"/thread", &listing); err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", rootID, err)
	}
	return listing.flatten(), nil
}

// FileInfo resolves one file id. A deleted file (server 404) returns
// (nil, nil): expected, not exceptional.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*RawFileInfo, error) {
	var fi RawFileInfo
	err := c.get(ctx, "/files/"+fileID+"/info", &fi)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("File already deleted", zap.String("file_id", fileID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file info %s: %w", fileID, err)
	}

	fi.DownloadURL = c.baseURL + "/files/" + fileID
	return &fi, nil
}

// Reactions returns the flat reaction list for one post. The server returns
// an empty body when a post has none.
func (c *Client) Reactions(ctx context.Context, postID string) ([]RawReaction, error) {
	var reactions []RawReaction
	err := c.get(ctx, "/posts/"+postID+"/reactions", &reactions)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions for post %s: %w", postID, err)
	}
	return reactions, nil
}

// CachedUsers reports how many identities the run has resolved so far.
func (c *Client) CachedUsers() int {
	return c.users.size()
}
