// Package ghclient fetches GitHub profiles and their repositories.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/spiffcs/gitgazer/internal/constants"
)

// Options configures a Client. The zero value talks to api.github.com
// without credentials.
type Options struct {
	// Token is an optional personal access token. When empty, requests are
	// sent unauthenticated and are subject to lower rate limits.
	Token string

	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise or tests.
	BaseURL string

	// Timeout bounds each HTTP call. Defaults to constants.DefaultRequestTimeout.
	Timeout time.Duration

	// MaxPages bounds repository pagination. Defaults to constants.DefaultMaxPages.
	MaxPages int

	// Progress, if set, is called after the profile and after every page.
	Progress ProgressFunc

	// Transport replaces http.DefaultTransport as the innermost round tripper.
	Transport http.RoundTripper
}

// Client wraps the GitHub API client
type Client struct {
	client    *gh.Client
	rateLimit *RateLimitState
	maxPages  int
	progress  ProgressFunc
	// authenticated records whether a token was supplied; the token itself
	// is never kept on the Client.
	authenticated bool
}

// NewClient creates a GitHub client from explicit options.
func NewClient(opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = constants.DefaultMaxPages
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	state := newRateLimitState()
	var transport http.RoundTripper = &rateLimitTransport{base: base, state: state}

	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}

	client := gh.NewClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
	})

	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{
		client:        client,
		rateLimit:     state,
		maxPages:      maxPages,
		progress:      opts.Progress,
		authenticated: opts.Token != "",
	}, nil
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.authenticated
}

// RateLimitStatus returns the quota observed on the most recent response.
func (c *Client) RateLimitStatus() RateLimitStatus {
	return c.rateLimit.Status()
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}
