package api

import "time"

// Retry policy: exponential backoff, base 1s doubling per attempt, capped at
// 5s, at most 3 retries after the initial attempt. All attempts for one call
// run sequentially; the caller stays blocked until the final outcome.
const (
	initialBackoff = time.Second
	maxBackoff     = 5 * time.Second
	maxRetries     = 3

	// surfaceThreshold is the cumulative wait past which a still-failing call
	// becomes worth bothering the user about.
	surfaceThreshold = 5 * time.Second
)

// backoffDelay returns the wait before re-attempting after failed attempt n (0-based).
func backoffDelay(attempt int) time.Duration {
	d := initialBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// cumulativeWait returns the total backoff accumulated across attempts 0..attempt.
func cumulativeWait(attempt int) time.Duration {
	var total time.Duration
	for n := 0; n <= attempt; n++ {
		total += backoffDelay(n)
	}
	return total
}
