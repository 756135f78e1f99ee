package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/config"
)

// ErrUnauthorized marks a rejected credential, as opposed to a generic
// connectivity failure. Callers surface it as a check-your-credentials hint.
var ErrUnauthorized = errors.New("planner rejected the credentials")

// Client talks to the Tempo REST API for one configured user.
type Client struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient builds a Tempo client from config.
func NewClient(cfg config.TempoConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		userID:  cfg.UserID,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Ping verifies that the planner is reachable and the token is accepted by
// requesting a one-day window.
func (c *Client) Ping(ctx context.Context) error {
	now := time.Now()
	req, err := c.newRequest(ctx, c.plansURL(now, now.AddDate(0, 0, 1)))
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tempo unreachable: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus(resp, "tempo")
}

// Entries fetches the planner entries overlapping [from, to] in payload
// order. Malformed entries are skipped and logged; a transport error while
// reading the payload returns the entries decoded so far together with the
// error.
func (c *Client) Entries(ctx context.Context, from, to time.Time) ([]Entry, error) {
	req, err := c.newRequest(ctx, c.plansURL(from, to))
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tempo unreachable: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "tempo"); err != nil {
		return nil, err
	}

	return c.decodeEntries(resp.Body)
}

// decodeEntries streams the results array one element at a time, so a
// transport failure mid-body still yields every entry received before it.
func (c *Client) decodeEntries(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("tempo payload: %w", err)
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return entries, fmt.Errorf("tempo payload: %w", err)
		}

		if key, ok := tok.(string); !ok || key != "results" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return entries, fmt.Errorf("tempo payload: %w", err)
			}
			continue
		}

		if _, err := dec.Token(); err != nil {
			return entries, fmt.Errorf("tempo payload: %w", err)
		}
		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return entries, fmt.Errorf("tempo payload: %w", err)
			}
			var dto entryDTO
			if err := json.Unmarshal(raw, &dto); err != nil {
				c.log.Warn("skipping undecodable planner entry", zap.Error(err))
				continue
			}
			e, err := entryFromDTO(dto)
			if err != nil {
				c.log.Warn("skipping malformed planner entry", zap.Error(err))
				continue
			}
			entries = append(entries, e)
		}
		if _, err := dec.Token(); err != nil {
			return entries, fmt.Errorf("tempo payload: %w", err)
		}
	}
	return entries, nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) plansURL(from, to time.Time) string {
	return fmt.Sprintf("%s/plans/user/%s?from=%s&to=%s",
		c.baseURL, c.userID, from.Format(DateFormat), to.Format(DateFormat))
}

func checkStatus(resp *http.Response, service string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", service, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s returned status %d", service, resp.StatusCode)
	}
	return nil
}
