package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carrent/internal/domain"
	"carrent/internal/wizard"
)

// Client talks to a remote booking backend on behalf of a wizard session.
type Client struct {
	httpClient HTTPClient
	baseURL    string
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Option func(*Client)

type availabilityEntry struct {
	ID          int64 `json:"id"`
	IsAvailable bool  `json:"is_available"`
}

type availabilityResponse struct {
	Cars *[]availabilityEntry `json:"cars"`
}

var (
	ErrBadStatusCode error = errors.New("invalid status code from booking backend")
	ErrMalformed     error = errors.New("malformed response from booking backend")
	ErrNoReference   error = errors.New("booking backend returned no booking reference")
)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			// The booking form answers with a redirect to the order page;
			// its Location is the booking reference.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		baseURL: "http://localhost:8080",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Availability queries GET /v1/cars/availability for the range.
func (c *Client) Availability(ctx context.Context, start, end time.Time) ([]domain.CarAvailability, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(domain.DateLayout))
	q.Set("end_date", end.Format(domain.DateLayout))
	u := c.baseURL + "/v1/cars/availability?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatusCode, resp.StatusCode)
	}

	var body availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if body.Cars == nil {
		return nil, fmt.Errorf("%w: missing cars", ErrMalformed)
	}

	out := make([]domain.CarAvailability, 0, len(*body.Cars))
	for _, e := range *body.Cars {
		out = append(out, domain.CarAvailability{CarID: e.ID, IsAvailable: e.IsAvailable})
	}
	return out, nil
}

// SubmitBooking posts the completed draft to POST /booking as a standard
// form and returns the order path the backend redirects to.
func (c *Client) SubmitBooking(ctx context.Context, s wizard.Submission) (string, error) {
	body := strings.NewReader(s.Form().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/booking", body)
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode <= 399:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", ErrNoReference
		}
		return loc, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		// Redirect already followed by a caller-supplied client.
		if resp.Request != nil && resp.Request.URL != nil && resp.Request.URL.Path != "/booking" {
			return resp.Request.URL.Path, nil
		}
		return "", ErrNoReference
	default:
		return "", fmt.Errorf("%w: %d", ErrBadStatusCode, resp.StatusCode)
	}
}

var (
	_ wizard.AvailabilityFetcher = (*Client)(nil)
	_ wizard.Submitter           = (*Client)(nil)
)
