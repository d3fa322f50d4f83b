// Package client talks to the scavenger HTTP service: challenge retrieval,
// registration and solution submission.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/hieunv6/scavenger-miner/shared"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnavailable    = errors.New("unavailable")
	ErrInvalidRequest = errors.New("invalid request")
)

const requestTimeout = 30 * time.Second

// The service sits behind a browser-oriented gateway; it expects a regular
// browser user agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Terms is the terms-and-conditions document. Message is the exact text a
// wallet must sign for registration.
type Terms struct {
	Version string `json:"version"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// ChallengeEnvelope wraps the current round's challenge.
type ChallengeEnvelope struct {
	Code             string           `json:"code"`
	Challenge        shared.Challenge `json:"challenge"`
	MiningPeriodEnds string           `json:"mining_period_ends"`
}

type RegistrationReceipt struct {
	Preimage  string `json:"preimage"`
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
}

// CryptoReceipt acknowledges an accepted solution.
type CryptoReceipt struct {
	Preimage  string `json:"preimage"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

type registrationResponse struct {
	RegistrationReceipt *RegistrationReceipt `json:"registrationReceipt"`
}

type solutionResponse struct {
	CryptoReceipt *CryptoReceipt `json:"crypto_receipt"`
}

// Client is an HTTP client for the scavenger service. Requests are retried
// with backoff on transient failures.
type Client struct {
	baseURL *url.URL
	client  *retryablehttp.Client
}

type Opt func(*Client)

// WithRetryMax overrides the number of retries per request.
func WithRetryMax(n int) Opt {
	return func(c *Client) {
		c.client.RetryMax = n
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Opt) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = nil
	// Surface the final response to the status switch in req instead of a
	// wrapped "giving up" error.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{baseURL: u, client: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Terms fetches the terms-and-conditions document.
func (c *Client) Terms(ctx context.Context) (*Terms, error) {
	terms := Terms{}
	if err := c.req(ctx, http.MethodGet, &terms, "TandC"); err != nil {
		return nil, fmt.Errorf("fetching terms: %w", err)
	}
	return &terms, nil
}

// Register submits the signed terms message for an address. The receipt may
// be nil when the address was already registered.
func (c *Client) Register(ctx context.Context, address, signature, pubkey string) (*RegistrationReceipt, error) {
	resBody := registrationResponse{}
	if err := c.req(ctx, http.MethodPost, &resBody, "register", address, signature, pubkey); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return resBody.RegistrationReceipt, nil
}

// Challenge fetches the current round.
func (c *Client) Challenge(ctx context.Context) (*ChallengeEnvelope, error) {
	envelope := ChallengeEnvelope{}
	if err := c.req(ctx, http.MethodGet, &envelope, "challenge"); err != nil {
		return nil, fmt.Errorf("fetching challenge: %w", err)
	}
	return &envelope, nil
}

// SubmitSolution reports a winning nonce. The nonce hex text must be passed
// through exactly as the search produced it. The receipt may be nil when the
// server rejected the solution without an error status.
func (c *Client) SubmitSolution(ctx context.Context, address, challengeID, nonce string) (*CryptoReceipt, error) {
	resBody := solutionResponse{}
	if err := c.req(ctx, http.MethodPost, &resBody, "solution", address, challengeID, nonce); err != nil {
		return nil, fmt.Errorf("submitting solution: %w", err)
	}
	return resBody.CryptoReceipt, nil
}

// StarRates returns the day-indexed reward table.
func (c *Client) StarRates(ctx context.Context) ([]uint64, error) {
	var rates []uint64
	if err := c.req(ctx, http.MethodGet, &rates, "work_to_star_rate"); err != nil {
		return nil, fmt.Errorf("fetching star rates: %w", err)
	}
	return rates, nil
}

func (c *Client) req(ctx context.Context, method string, resBody any, pathSegments ...string) error {
	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		method,
		c.baseURL.JoinPath(pathSegments...).String(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("X-Request-ID", uuid.NewString())

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrNotFound, res.Status, string(data))
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrUnavailable, res.Status, string(data))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: response status code: %s, body: %s", ErrInvalidRequest, res.Status, string(data))
	default:
		return fmt.Errorf("unrecognized error: status code: %s, body: %s", res.Status, string(data))
	}

	if resBody != nil {
		if err := json.Unmarshal(data, resBody); err != nil {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}
	return nil
}
