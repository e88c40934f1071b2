/*
Package resilience provides a circuit breaker for outbound calls.

# Overview

The sandbox proxies submissions' fetch calls to real upstreams. A dead
or slow upstream must not be re-dialed by every submission in a busy
challenge session; the breaker fails those calls fast until the
upstream recovers.

# Usage

	breaker := resilience.New("sandbox-fetch", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.R().Get(url)
	})

# States

- Closed: normal operation, requests pass through
- Open: upstream unavailable, requests fail immediately
- Half-Open: testing recovery, limited requests allowed

The breaker transitions on success/failure counts:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
