package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	// Instance is a host name ("lemmy.ml") or a full base URL.
	Instance string
	Username string
	Password string
	// RetryMax is the transport-level retry budget. Zero disables retries.
	RetryMax int
	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit   float64
	Timeout     time.Duration
	ListingType string
	FetchLimit  int
}

// Client talks to a Lemmy instance's v3 HTTP API on behalf of the bot account.
type Client struct {
	baseURL     string
	http        *retryablehttp.Client
	limiter     *rate.Limiter
	username    string
	password    string
	listingType string
	fetchLimit  int

	mu  sync.RWMutex
	jwt string
}

// NewClient creates a client. Call Login before any authenticated call.
func NewClient(opts Options) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.RetryMax
	hc.Logger = nil
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		hc.HTTPClient.Timeout = opts.Timeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	baseURL := strings.TrimRight(opts.Instance, "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	listingType := opts.ListingType
	if listingType == "" {
		listingType = "Local"
	}
	fetchLimit := opts.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = 50
	}

	return &Client{
		baseURL:     baseURL,
		http:        hc,
		limiter:     limiter,
		username:    opts.Username,
		password:    opts.Password,
		listingType: listingType,
		fetchLimit:  fetchLimit,
	}
}

// BaseURL returns the instance base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login authenticates the bot account and keeps the returned token.
func (c *Client) Login(ctx context.Context) error {
	var resp loginResponse
	form := loginForm{UsernameOrEmail: c.username, Password: c.password}
	if err := c.do(ctx, http.MethodPost, "/user/login", nil, form, &resp, false); err != nil {
		return &CapabilityError{Op: "login", Err: err}
	}
	if resp.JWT == nil || *resp.JWT == "" {
		return &CapabilityError{Op: "login", Err: fmt.Errorf("no token returned for %s", c.username)}
	}

	c.mu.Lock()
	c.jwt = *resp.JWT
	c.mu.Unlock()

	log.Printf("Logged in to %s as %s", c.baseURL, c.username)
	return nil
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jwt
}

// do performs one API call. params is encoded into the query string, body is
// sent as JSON, and a successful response is decoded into out.
func (c *Client) do(ctx context.Context, method, path string, params, body, out any, auth bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + "/api/v3" + path
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("encoding query: %w", err)
		}
		if encoded := values.Encode(); encoded != "" {
			u += "?" + encoded
		}
	}

	var rawBody any
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body: %w", err)
		}
		rawBody = payload
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, rawBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		jwt := c.token()
		if jwt == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+jwt)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e errorResponse
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
