// Package searchapi is the HTTP client for the remote flight search and
// booking API.
package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cx-tal-miterani/flight-storefront/shared/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrUpstream is returned when the API answers with a non-2xx status or
	// an embedded error block.
	ErrUpstream = errors.New("search api error")
)

// Client talks to the search/booking API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outbound calls to rps requests per second.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client rooted at baseURL (for example "http://host/api").
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchFlights runs a flight search and returns the trace id plus the
// offers of the first result group. Offers without legs are dropped.
func (c *Client) SearchFlights(ctx context.Context, req models.SearchRequest) (string, []models.FlightOffer, error) {
	var resp models.SearchResponse
	if err := c.post(ctx, "/flight/search", req, &resp); err != nil {
		return "", nil, fmt.Errorf("failed to search flights: %w", err)
	}
	if e := resp.Response.Error; e != nil && e.ErrorCode != 0 {
		return "", nil, fmt.Errorf("failed to search flights: %w: %d %s", ErrUpstream, e.ErrorCode, e.ErrorMessage)
	}

	offers := make([]models.FlightOffer, 0)
	if len(resp.Response.Results) > 0 {
		for _, o := range resp.Response.Results[0] {
			if len(o.Legs()) == 0 {
				c.logger.Warn("dropping offer without legs", zap.String("resultIndex", o.ResultIndex))
				continue
			}
			offers = append(offers, o)
		}
	}

	c.logger.Debug("flight search completed",
		zap.String("traceId", resp.Response.TraceID),
		zap.Int("offers", len(offers)))

	return resp.Response.TraceID, offers, nil
}

// FareRules returns the raw fare rule document for an offer.
func (c *Client) FareRules(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/flights/fareRule", models.FareRuleRequest{TraceID: traceID, ResultIndex: resultIndex}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get fare rules: %w", err)
	}
	return raw, nil
}

// FareQuote re-prices an offer before booking.
func (c *Client) FareQuote(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/flights/fareQuote", models.FareRuleRequest{TraceID: traceID, ResultIndex: resultIndex}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get fare quote: %w", err)
	}
	return raw, nil
}

// SSR returns the special service (meal, baggage, seat) options of an offer.
func (c *Client) SSR(ctx context.Context, traceID, resultIndex string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/flights/getSSR", models.FareRuleRequest{TraceID: traceID, ResultIndex: resultIndex}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get SSR: %w", err)
	}
	return raw, nil
}

// Book places the booking with the provider.
func (c *Client) Book(ctx context.Context, req models.ProviderBookingRequest) (*models.ProviderBookingResult, error) {
	var resp models.ProviderBookingResponse
	if err := c.post(ctx, "/flights/book", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to book flight: %w", err)
	}
	if e := resp.Response.Error; e != nil && e.ErrorCode != 0 {
		return nil, fmt.Errorf("failed to book flight: %w: %d %s", ErrUpstream, e.ErrorCode, e.ErrorMessage)
	}
	return &models.ProviderBookingResult{
		PNR:               resp.Response.Response.PNR,
		ProviderBookingID: resp.Response.Response.BookingID,
	}, nil
}

// SearchAirports looks airports up by city, code or name.
func (c *Client) SearchAirports(ctx context.Context, keyword string) ([]models.AirportInfo, error) {
	airports := make([]models.AirportInfo, 0)
	path := "/airports/search?keyword=" + url.QueryEscape(keyword)
	if keyword == "" {
		path = "/airports/"
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &airports); err != nil {
		return nil, fmt.Errorf("failed to search airports: %w", err)
	}
	return airports, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("search api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
