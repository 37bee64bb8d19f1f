package metaculus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the REST client for the Metaculus API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Metaculus API client.
//
// baseURL is the site root, e.g. "https://www.metaculus.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListURL returns the first-page cursor of the questions listing.
func (c *Client) ListURL() string {
	return c.baseURL + "/api2/questions/"
}

// FetchPage retrieves one page of the questions listing. cursorURL is either
// ListURL or the Next cursor from a previous page.
func (c *Client) FetchPage(ctx context.Context, cursorURL string) (*APIQuestionList, error) {
	body, err := c.doGet(ctx, cursorURL)
	if err != nil {
		return nil, fmt.Errorf("metaculus: fetch page: %w", err)
	}

	var list APIQuestionList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("metaculus: decode page: %w", err)
	}
	return &list, nil
}

// FetchDetail retrieves a single question with its sub-questions and comment
// thread.
func (c *Client) FetchDetail(ctx context.Context, id int) (*APIQuestionDetail, error) {
	body, err := c.doGet(ctx, fmt.Sprintf("%s/api2/questions/%d/", c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("metaculus: fetch question %d: %w", id, err)
	}

	var detail APIQuestionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("metaculus: decode question %d: %w", id, err)
	}
	return &detail, nil
}

// doGet sends an unauthenticated GET request and returns the response body.
func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
