package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient creates an HTTP client with response caching layered
// over base. Binary endpoints (captcha images, exported documents) send
// Cache-Control headers, so repeat fetches are served locally.
func NewCachingHTTPClient(cacheDir string, base http.RoundTripper, timeout time.Duration) *http.Client {
	var transport *httpcache.Transport
	if cacheDir == "" {
		// In-memory cache when no cache directory is configured.
		transport = httpcache.NewTransport(httpcache.NewMemoryCache())
	} else {
		// Disk-based cache persists across process restarts.
		transport = httpcache.NewTransport(diskcache.New(cacheDir))
	}
	transport.Transport = base

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
