// Package httputil provides the shared outbound HTTP plumbing for the
// pipeline's external calls (semantic judge, embeddings endpoint).
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize caps response body reads. A judge verdict is a few hundred
// bytes; anything near this limit is a misbehaving endpoint.
const MaxResponseSize = 1 * 1024 * 1024 // 1MB

// Shared transport with pooled connections, reused by every client tier.
// Scan traffic is bursty (only high-risk requests reach the network), so
// keeping idle connections warm matters more than a large pool.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines timeout categories for the pipeline's outbound calls.
type TimeoutTier int

const (
	// TierProbe for endpoint health probes (5s)
	TierProbe TimeoutTier = iota
	// TierScan for semantic judge calls; the per-request context deadline is
	// the real bound, this is the safety net (10s)
	TierScan
	// TierEmbed for embeddings requests used by the similarity backend (30s)
	TierEmbed
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierProbe: 5 * time.Second,
	TierScan:  10 * time.Second,
	TierEmbed: 30 * time.Second,
}

var (
	clientProbe *http.Client
	clientScan  *http.Client
	clientEmbed *http.Client
	clientOnce  sync.Once
)

func initClients() {
	clientProbe = &http.Client{Timeout: timeoutDurations[TierProbe], Transport: sharedTransport}
	clientScan = &http.Client{Timeout: timeoutDurations[TierScan], Transport: sharedTransport}
	clientEmbed = &http.Client{Timeout: timeoutDurations[TierEmbed], Transport: sharedTransport}
}

// Client returns the shared HTTP client for the given tier. Clients share one
// connection pool; never build per-request http.Client values.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierProbe:
		return clientProbe
	case TierScan:
		return clientScan
	case TierEmbed:
		return clientEmbed
	default:
		return clientScan
	}
}

// ReadResponseBody reads a response body with a size limit.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the connection returns
// to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
