package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/config"
)

// ErrUnauthorized marks a rejected credential, as opposed to a generic
// connectivity failure.
var ErrUnauthorized = errors.New("tracker rejected the credentials")

// Client talks to the Jira REST API. Single-item lookups recover from
// failures by returning (nil, nil); only Ping reports hard errors.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a Jira client from config.
func NewClient(cfg config.JiraConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Ping verifies that the tracker is reachable and the credentials are
// accepted.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, c.baseURL+"/rest/api/3/myself")
	if err != nil {
		return fmt.Errorf("jira unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("jira: %w", ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("jira returned status %d", resp.StatusCode)
	}
	return nil
}

// Issue looks up one issue by id or key. Not-found and recoverable errors
// yield (nil, nil) so the caller can fall back to unenriched data.
func (c *Client) Issue(ctx context.Context, id string) (*Issue, error) {
	if id == "" {
		return nil, nil
	}

	var dto issueDTO
	if ok := c.fetch(ctx, c.baseURL+"/rest/api/3/issue/"+id, &dto); !ok {
		return nil, nil
	}

	issue, err := issueFromDTO(dto, c.browseURL())
	if err != nil {
		c.log.Warn("discarding unusable issue lookup", zap.String("id", id), zap.Error(err))
		return nil, nil
	}
	return issue, nil
}

// Project looks up one project by id or key, with the same recovery
// behavior as Issue.
func (c *Client) Project(ctx context.Context, id string) (*Project, error) {
	if id == "" {
		return nil, nil
	}

	var dto projectDTO
	if ok := c.fetch(ctx, c.baseURL+"/rest/api/3/project/"+id, &dto); !ok {
		return nil, nil
	}
	return projectFromDTO(dto, c.browseURL()), nil
}

// fetch GETs url and decodes the body into out. Any failure is logged and
// reported as "not usable" rather than an error.
func (c *Client) fetch(ctx context.Context, url string, out any) bool {
	resp, err := c.get(ctx, url)
	if err != nil {
		c.log.Warn("tracker lookup failed", zap.String("url", url), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("tracker lookup failed", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return false
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn("tracker payload undecodable", zap.String("url", url), zap.Error(err))
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.email, c.token)
	return c.http.Do(req)
}

func (c *Client) browseURL() string {
	return c.baseURL + "/browse/"
}
