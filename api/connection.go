package api

import (
	"net/http"
	"net/url"
	"time"
)

// Connection is the transport seam between a provider client and the wire.
//
//go:generate mockgen -package=alpaca_test -destination=alpaca/mock_connection_test.go -source=connection.go Connection
type Connection interface {
	Request(endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client *http.Client
	host   string
	header http.Header
}

type Client struct {
	Connection Connection
}

func (conn *ClientHost) Request(endpoint *url.URL) (*http.Response, error) {
	endpoint.Scheme = "https"
	endpoint.Host = conn.host

	req, err := http.NewRequest(http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header = conn.header.Clone()

	return conn.client.Do(req)
}

// ClientFactory builds a client over a plain https transport. The header
// is sent with every request, which is where provider auth lives.
func ClientFactory(host string, header http.Header, timeout time.Duration) *Client {
	client := &http.Client{
		Timeout: timeout,
	}

	clientHost := &ClientHost{
		client: client,
		host:   host,
		header: header,
	}

	return &Client{
		Connection: clientHost,
	}
}
