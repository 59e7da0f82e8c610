package llm

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient creates an HTTP client tuned for evaluation API calls. The
// per-attempt deadline comes from the caller's context; the client timeout
// is only a backstop.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
