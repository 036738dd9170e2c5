package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

const (
	// DefaultBaseURL is the Juhe finance API root.
	DefaultBaseURL = "http://web.juhe.cn/finance/stock"
	// DefaultTimeout bounds a single quote request.
	DefaultTimeout = 15 * time.Second

	providerName = "juhe"
)

var endpoints = map[Market]string{
	MarketHS: "hs",
	MarketHK: "hk",
	MarketUS: "usa",
}

// JuheClient fetches quotes from the Juhe finance API.
type JuheClient struct {
	baseURL    string
	defaultKey string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a JuheClient.
type Option func(*JuheClient)

// WithBaseURL points the client at another endpoint root.
func WithBaseURL(baseURL string) Option {
	return func(c *JuheClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithDefaultKey sets the process-level API key used when a call supplies none.
func WithDefaultKey(key string) Option {
	return func(c *JuheClient) {
		c.defaultKey = key
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *JuheClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *JuheClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewJuheClient creates a client.
func NewJuheClient(opts ...Option) *JuheClient {
	c := &JuheClient{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote fetches and normalizes the quote for symbol. apiKey takes precedence
// over the client's default key.
func (c *JuheClient) Quote(ctx context.Context, symbol, apiKey string) (*Quote, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = c.defaultKey
	}
	if key == "" {
		return nil, apperr.MissingCredential(providerName)
	}

	m := Classify(symbol)
	endpoint, ok := endpoints[m]
	if !ok {
		return nil, apperr.New(apperr.KindUnsupported, "unsupported stock symbol format %q", symbol)
	}

	param, code := queryParam(m, symbol)
	q := url.Values{}
	q.Set(param, code)
	q.Set("key", key)
	reqURL := c.baseURL + "/" + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperr.Upstream(providerName, 0, fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(providerName, resp.StatusCode, fmt.Sprintf("read body: %v", err), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream(providerName, resp.StatusCode,
			fmt.Sprintf("status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}

	return parseQuote(body, m)
}

// Fetch is Quote with every failure downgraded to nil. The reason is logged.
func (c *JuheClient) Fetch(ctx context.Context, symbol, apiKey string) *Quote {
	quote, err := c.Quote(ctx, symbol, apiKey)
	if err != nil {
		c.logger.WarnContext(ctx, "market data unavailable",
			slog.String("symbol", symbol),
			slog.String("kind", string(apperr.KindOf(err))),
			slog.Any("error", err),
		)
		return nil
	}
	return quote
}

func parseQuote(body []byte, m Market) (*Quote, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperr.Upstream(providerName, http.StatusOK, "malformed response body", nil)
	}
	root := gjson.ParseBytes(body)

	if code := root.Get("resultcode").String(); code != "200" {
		reason := strings.TrimSpace(root.Get("reason").String())
		if reason == "" {
			reason = fmt.Sprintf("request failed with resultcode %q", code)
		}
		return nil, apperr.Upstream(providerName, http.StatusOK, reason, nil)
	}

	entry := root.Get("result.0")
	if !entry.Exists() {
		return nil, apperr.Upstream(providerName, http.StatusOK, "response has no result entry", nil)
	}
	data := entry.Get("data")
	if !data.Exists() {
		data = entry
	}
	pics := entry.Get("gopicture")

	q := &Quote{
		Market:        m,
		Code:          first(data, "gid"),
		Name:          first(data, "name"),
		Price:         first(data, "nowPri", "lastestpri"),
		ChangePercent: first(data, "limit", "increPer"),
		ChangeAmount:  first(data, "uppic", "increase"),
		Open:          first(data, "openpri"),
		PrevClose:     first(data, "formpri"),
		High:          first(data, "maxpri"),
		Low:           first(data, "minpri"),
		Volume:        first(data, "traNumber"),
		Turnover:      first(data, "traAmount"),
		PE:            first(data, "priearn"),
		EPS:           first(data, "EPS"),
		High52:        first(data, "max52"),
		Low52:         first(data, "min52"),
		Bid:           first(data, "competitivePri"),
		Ask:           first(data, "reservePri"),
		Charts: Charts{
			Minute: first(pics, "minurl"),
			Day:    first(pics, "dayurl"),
			Week:   first(pics, "weekurl"),
			Month:  first(pics, "monthurl"),
		},
	}

	if q.Name == "" || q.Price == "" {
		return nil, apperr.New(apperr.KindValidation, "quote is missing a name or price")
	}
	return q, nil
}

// first returns the first non-empty value among the given keys.
func first(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(obj.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}
