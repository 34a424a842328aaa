package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"
)

const DefaultUserAgent = "soura-masreya/1.0"

type Options struct {
	PreferIPv4 bool
	Timeout    time.Duration
	UserAgent  string
	// Transport replaces the dialing transport, mostly for tests.
	Transport http.RoundTripper
}

func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	base := opts.Transport
	if base == nil {
		base = newTransport(opts.PreferIPv4)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: base, userAgent: userAgent},
	}
}

func newTransport(preferIPv4 bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if preferIPv4 {
				return dialer.DialContext(ctx, "tcp4", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 150 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
