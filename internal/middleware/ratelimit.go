package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "golang.org/x/time/rate"

    "github.com/iliyamo/festival-booking/internal/config"
)

var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + (intervals * refill_tokens))
        last_refill = last_refill + (intervals * interval_ms)
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// RateLimiter is a token bucket per key.  Buckets live in Redis so every
// API instance shares them; when Redis is absent or a call fails the
// in-process limiter decides instead.
type RateLimiter struct {
    cfg   config.RateLimitConfig
    rdb   *redis.Client
    local *localLimiter
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
    return &RateLimiter{cfg: cfg, rdb: rdb, local: newLocalLimiter(cfg)}
}

// NewTokenBucket is shorthand for NewRateLimiter(cfg, rdb).Middleware().
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    return NewRateLimiter(cfg, rdb).Middleware()
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
    if !l.cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(l.cfg, c)
            allowed, remaining, retry := l.take(c, key)

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if !allowed {
                secs := int(math.Ceil(retry.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func (l *RateLimiter) take(c echo.Context, key string) (bool, int64, time.Duration) {
    if l.rdb != nil {
        args := []interface{}{
            time.Now().UnixMilli(),
            l.cfg.Capacity,
            l.cfg.RefillTokens,
            l.cfg.RefillInterval.Milliseconds(),
            int64(l.cfg.TTL / time.Second),
        }
        vals, err := bucketScript.Run(c.Request().Context(), l.rdb, []string{key}, args...).Result()
        if err == nil {
            if arr, ok := vals.([]interface{}); ok && len(arr) == 3 {
                return asInt64(arr[0]) == 1, asInt64(arr[1]), time.Duration(asInt64(arr[2])) * time.Millisecond
            }
            err = fmt.Errorf("unexpected script result %#v", vals)
        }
        c.Logger().Warnf("ratelimit: redis unavailable for %s, using local limiter: %v", key, err)
    }
    return l.local.take(key)
}

// localLimiter keeps one rate.Limiter per key in memory.  Idle keys are
// dropped by sweep.
type localLimiter struct {
    mu      sync.Mutex
    every   rate.Limit
    burst   int
    ttl     time.Duration
    buckets map[string]*localBucket
    swept   time.Time
}

type localBucket struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
    return &localLimiter{
        every:   rate.Limit(cfg.PerSecond()),
        burst:   cfg.Capacity,
        ttl:     cfg.TTL,
        buckets: make(map[string]*localBucket),
        swept:   time.Now(),
    }
}

func (l *localLimiter) take(key string) (bool, int64, time.Duration) {
    now := time.Now()
    l.mu.Lock()
    b, ok := l.buckets[key]
    if !ok {
        b = &localBucket{lim: rate.NewLimiter(l.every, l.burst)}
        l.buckets[key] = b
    }
    b.seen = now
    if now.Sub(l.swept) > l.ttl {
        l.sweep(now)
    }
    l.mu.Unlock()

    r := b.lim.ReserveN(now, 1)
    if !r.OK() {
        return false, 0, 0
    }
    if d := r.DelayFrom(now); d > 0 {
        r.CancelAt(now)
        return false, 0, d
    }
    return true, int64(b.lim.TokensAt(now)), 0
}

func (l *localLimiter) sweep(now time.Time) {
    for k, b := range l.buckets {
        if now.Sub(b.seen) > l.ttl {
            delete(l.buckets, k)
        }
    }
    l.swept = now
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userKey(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
