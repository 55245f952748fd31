package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives both the Redis token bucket and the in-process
// limiter used when Redis is unreachable.  BookingCapacity applies a
// tighter bucket to the admission endpoints.
type RateLimitConfig struct {
    Enabled         bool
    Capacity        int
    BookingCapacity int
    RefillTokens    int
    RefillInterval  time.Duration
    TTL             time.Duration
    KeyStrategy     string
    Prefix          string
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:         envBool("RATE_LIMIT_ENABLED", true),
        Capacity:        envInt("RATE_LIMIT_CAPACITY", 60),
        BookingCapacity: envInt("RATE_LIMIT_BOOKING_CAPACITY", 10),
        RefillTokens:    envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval:  envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:             envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:     envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:          envStr("RATE_LIMIT_PREFIX", "fest:rl"),
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.BookingCapacity < 1 { def.BookingCapacity = def.Capacity }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

// WithCapacity returns a copy with a different bucket size.
func (c RateLimitConfig) WithCapacity(n int) RateLimitConfig {
    if n > 0 {
        c.Capacity = n
    }
    return c
}

// PerSecond is the steady refill rate expressed in tokens per second.
func (c RateLimitConfig) PerSecond() float64 {
    return float64(c.RefillTokens) / c.RefillInterval.Seconds()
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v, err := strconv.ParseBool(os.Getenv(k))
    if err != nil {
        switch os.Getenv(k) {
        case "yes", "YES", "on", "ON": return true
        case "no", "NO", "off", "OFF": return false
        }
        return d
    }
    return v
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
