package alpaca

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	c "bardata/api"
)

// public
const (
	HostDefault = "data.alpaca.markets"
)

// private
const (
	defaultTimeout = time.Second * 30

	// auth headers
	keyIDHeader     = "APCA-API-KEY-ID"
	secretKeyHeader = "APCA-API-SECRET-KEY"

	// api request elements
	barsPath   = "v1/bars/"
	symbolsKey = "symbols"
	limitKey   = "limit"
	endKey     = "end"
)

// Bar is one raw bar exactly as the wire gives it, epoch seconds and all.
type Bar struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

func (b Bar) GetTime() time.Time {
	return time.Unix(b.Time, 0)
}

// BarSet is the raw multi symbol response, one frame of bars per symbol.
type BarSet map[string][]Bar

type AlpacaClient struct {
	*c.Client
}

type clientOptions struct {
	host       string
	timeout    time.Duration
	connection c.Connection
}

// Option is a configuration option for the alpaca client.
type Option func(*clientOptions)

// WithHost overrides the default data API host.
func WithHost(host string) Option {
	return func(o *clientOptions) {
		o.host = host
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithConnection swaps the transport, which is how tests get in.
func WithConnection(connection c.Connection) Option {
	return func(o *clientOptions) {
		o.connection = connection
	}
}

func GetClient(keyID string, secretKey string, options ...Option) AlpacaClient {
	opts := clientOptions{
		host:    HostDefault,
		timeout: defaultTimeout,
	}
	for _, option := range options {
		option(&opts)
	}

	header := http.Header{}
	header.Set(keyIDHeader, keyID)
	header.Set(secretKeyHeader, secretKey)

	client := c.ClientFactory(opts.host, header, opts.timeout)
	if opts.connection != nil {
		client.Connection = opts.connection
	}

	return AlpacaClient{client}
}

// GetBars queries the barset endpoint for one or more symbols in a single
// request. The timeframe is the provider's native token (eg. "1Min" or
// "1D"), limit caps the number of bars per symbol, and end is an already
// formatted ISO 8601 timestamp, empty for "up to now".
// https://docs.alpaca.markets/reference/market-data-api
func (ac *AlpacaClient) GetBars(timeframe string, symbols []string, limit int, end string) (BarSet, error) {
	if ac == nil || ac.Client == nil {
		panic("alpaca client has not been set.")
	}

	params := map[string]string{
		symbolsKey: strings.Join(symbols, ","),
	}
	if limit > 0 {
		params[limitKey] = strconv.Itoa(limit)
	}
	if end != "" {
		params[endKey] = end
	}

	endpoint := ac.buildRequestPath(timeframe, params)

	response, err := ac.Client.Connection.Request(endpoint)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error response from alpaca, status %d: %s", response.StatusCode, strings.TrimSpace(string(raw)))
	}

	var barset BarSet
	if err := json.Unmarshal(raw, &barset); err != nil {
		return nil, fmt.Errorf("error unmarshaling barset response: %w", err)
	}

	return barset, nil
}

func (ac *AlpacaClient) buildRequestPath(timeframe string, params map[string]string) *url.URL {
	endpoint := &url.URL{}
	endpoint.Path = barsPath + timeframe

	query := endpoint.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	endpoint.RawQuery = query.Encode()

	return endpoint
}
