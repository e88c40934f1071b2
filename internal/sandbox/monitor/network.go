package monitor

import (
	"context"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/codearena/backend/internal/infrastructure/resilience"
	"github.com/codearena/backend/internal/sandbox/fault"
)

// blockedSchemes can smuggle code or reach local resources and are
// rejected regardless of remaining quota.
var blockedSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"file":       true,
	"vbscript":   true,
	"blob":       true,
}

// NetworkResponse is what sandboxed code sees from a proxied request
type NetworkResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// NetworkMonitor proxies every outbound request issued by sandboxed
// code: it counts requests against the per-run ceiling and blocks
// dangerous targets outright.
type NetworkMonitor struct {
	limit   int
	count   atomic.Int64
	client  *resty.Client
	breaker *resilience.Breaker
}

// NewNetworkMonitor creates a monitor with the given request ceiling
func NewNetworkMonitor(limit int, timeout time.Duration) *NetworkMonitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NetworkMonitor{
		limit: limit,
		client: resty.New().
			SetTimeout(timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(3)),
		// A dead upstream should not be re-dialed by every submission.
		breaker: resilience.New("sandbox-fetch", resilience.Settings{
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// CheckURL validates a target against the denylist. Runs before quota
// accounting so a blocked request is reported as blocked, not counted.
func (n *NetworkMonitor) CheckURL(target string) error {
	parsed, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return fault.New(fault.BlockedRequest, "unparseable url")
	}

	scheme := strings.ToLower(parsed.Scheme)
	if blockedSchemes[scheme] {
		return fault.New(fault.BlockedRequest, "scheme %q is not allowed", scheme)
	}
	if scheme != "http" && scheme != "https" {
		return fault.New(fault.BlockedRequest, "scheme %q is not allowed", scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" || host == "localhost" || host == "0.0.0.0" {
		return fault.New(fault.BlockedRequest, "host %q is not allowed", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fault.New(fault.BlockedRequest, "address %q is not allowed", host)
		}
	}
	return nil
}

// Request performs one proxied outbound request, enforcing the denylist
// and the count ceiling per call.
func (n *NetworkMonitor) Request(ctx context.Context, method, target string, body string) (*NetworkResponse, error) {
	if err := n.CheckURL(target); err != nil {
		return nil, err
	}

	if n.count.Add(1) > int64(n.limit) {
		return nil, fault.New(fault.NetworkLimit, "request count exceeds limit %d", n.limit)
	}

	result, err := n.breaker.Execute(func() (interface{}, error) {
		req := n.client.R().SetContext(ctx)
		if body != "" {
			req.SetBody(body)
		}
		return req.Execute(strings.ToUpper(method), target)
	})
	if err != nil {
		return nil, fault.New(fault.RuntimeError, "network request failed: %v", err)
	}

	resp := result.(*resty.Response)
	return &NetworkResponse{
		Status: resp.StatusCode(),
		Body:   string(resp.Body()),
	}, nil
}

// Count reports how many requests were attempted past the denylist
func (n *NetworkMonitor) Count() int64 {
	return n.count.Load()
}
