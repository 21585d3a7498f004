package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/BartekS5/activity-etl/pkg/models"
)

// BearerTokenProvider supplies the Authorization credential for API calls.
type BearerTokenProvider interface {
	BearerToken(ctx context.Context) (string, error)
}

// APIError is returned for any non-2xx response from the activities endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("activities API returned status %d: %s", e.StatusCode, e.Body)
}

// Client lists activities for the authenticated athlete.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tokens     BearerTokenProvider
}

// NewClient creates a Client. If httpClient is nil, http.DefaultClient is used.
func NewClient(endpoint string, httpClient *http.Client, tokens BearerTokenProvider) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// ListActivities fetches one page of the reverse-chronological activity feed.
// An empty slice means the feed is exhausted.
func (c *Client) ListActivities(ctx context.Context, page, perPage int) ([]models.RawActivity, error) {
	token, err := c.tokens.BearerToken(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid activities endpoint %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("activities request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var activities []models.RawActivity
	if err := dec.Decode(&activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities page %d: %w", page, err)
	}
	return activities, nil
}
