package middleware

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// TestNewIPRateLimiter tests the creation of a new IPRateLimiter.
func TestNewIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 5)
	if rl == nil {
		t.Fatal("Expected IPRateLimiter to be created, got nil")
	}
	if rl.rate != 1 {
		t.Errorf("Expected rate limit to be 1, got %v", rl.rate)
	}
	if rl.burst != 5 {
		t.Errorf("Expected burst limit to be 5, got %v", rl.burst)
	}
}

// TestAddIP tests adding a new IP to the rate limiter.
func TestAddIP(t *testing.T) {
	rl := NewIPRateLimiter(1, 5)
	ip := "192.168.1.1"
	limiter := rl.AddIP(ip)
	if limiter == nil {
		t.Errorf("Expected limiter to be created for IP, got nil")
	}
	if _, exists := rl.ips[ip]; !exists {
		t.Errorf("Expected IP to be added to ips map, but it was not found")
	}
}

// TestGetLimiter tests retrieving the rate limiter for an IP.
func TestGetLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 5)
	ip := "192.168.1.1"
	limiter := rl.GetLimiter(ip)
	if limiter == nil {
		t.Errorf("Expected limiter to be returned, got nil")
	}
	if _, exists := rl.ips[ip]; !exists {
		t.Errorf("Expected IP to be in ips map, but it was not found")
	}

	// A second lookup returns the same bucket
	if rl.GetLimiter(ip) != limiter {
		t.Errorf("Expected the same limiter for repeated lookups")
	}
}

// TestRateLimiting tests the actual rate limiting functionality.
func TestRateLimiting(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(1), 1) // 1 req/s, burst 1
	ip := "192.168.1.1"
	limiter := rl.GetLimiter(ip)

	if !limiter.Allow() {
		t.Errorf("Expected first request to be allowed")
	}

	if limiter.Allow() {
		t.Errorf("Expected second request to be denied due to rate limiting")
	}

	// After a second the bucket refills
	time.Sleep(1 * time.Second)
	if !limiter.Allow() {
		t.Errorf("Expected request to be allowed after waiting")
	}
}

// TestPerIPIsolation tests that each IP gets its own bucket.
func TestPerIPIsolation(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(1), 1)

	if !rl.GetLimiter("10.0.0.1").Allow() {
		t.Errorf("Expected first request from first IP to be allowed")
	}
	if rl.GetLimiter("10.0.0.1").Allow() {
		t.Errorf("Expected second request from first IP to be denied")
	}

	// A different IP is unaffected
	if !rl.GetLimiter("10.0.0.2").Allow() {
		t.Errorf("Expected request from second IP to be allowed")
	}
}

// TestBurst tests the burst getter.
func TestBurst(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(2), 5)
	if rl.Burst() != 5 {
		t.Errorf("Expected burst to be 5, got %d", rl.Burst())
	}
}
