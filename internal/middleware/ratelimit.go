// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
)

const (
	backendRedis = "redis"
	backendLocal = "local"
)

// ThrottlePolicy names a limit and how requests are bucketed under it.
type ThrottlePolicy struct {
	Name    string
	Limit   redis_rate.Limit
	Key     func(*http.Request) string
	Message string
}

// GlobalPolicy caps every route per client address.
func GlobalPolicy(cfg config.RateLimitConfig) ThrottlePolicy {
	return ThrottlePolicy{
		Name:  "global",
		Limit: PerWindow(cfg.Requests, cfg.Burst, cfg.Window),
		Key: func(r *http.Request) string {
			return "throttle:global:" + ClientIP(r)
		},
		Message: "Too many requests",
	}
}

// CredentialPolicy caps the password and token routes per client address
// and per route, so a burst of failed logins leaves signup untouched.
func CredentialPolicy(cfg config.RateLimitConfig) ThrottlePolicy {
	return ThrottlePolicy{
		Name:  "credentials",
		Limit: PerWindow(cfg.Requests, cfg.Burst, cfg.Window),
		Key: func(r *http.Request) string {
			return "throttle:credentials:" + credentialRoute(r) + ":" + ClientIP(r)
		},
		Message: "Too many sign-in attempts",
	}
}

// Throttle enforces a policy with Redis counters shared by every
// replica. While Redis is unreachable each process keeps its own token
// buckets so the credential routes are never left unguarded.
type Throttle struct {
	policy  ThrottlePolicy
	shared  *redis_rate.Limiter
	local   *localBuckets
	metrics *metrics.Registry
}

func NewThrottle(
	rdb redis.UniversalClient,
	policy ThrottlePolicy,
	reg *metrics.Registry,
) *Throttle {
	return &Throttle{
		policy:  policy,
		shared:  redis_rate.NewLimiter(rdb),
		local:   &localBuckets{buckets: make(map[string]*bucket)},
		metrics: reg,
	}
}

func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, backend := t.decide(r.Context(), t.policy.Key(r))
		writePolicyHeaders(w, t.policy, res)

		if res.Allowed == 0 {
			t.metrics.ObserveThrottle(t.policy.Name, "limited", backend)
			writeThrottled(w, t.policy.Message, res.RetryAfter)
			return
		}

		t.metrics.ObserveThrottle(t.policy.Name, "allowed", backend)
		next.ServeHTTP(w, r)
	})
}

func (t *Throttle) decide(ctx context.Context, key string) (*redis_rate.Result, string) {
	res, err := t.shared.Allow(ctx, key, t.policy.Limit)
	if err == nil {
		return res, backendRedis
	}

	slog.WarnContext(ctx, "throttle.local_fallback",
		"policy", t.policy.Name,
		"error", err,
	)
	return t.local.allow(key, t.policy.Limit, time.Now()), backendLocal
}

// ClientIP is the rightmost X-Forwarded-For hop, the address our edge
// proxy saw, falling back to the socket peer when that hop is absent or
// not an IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hop := strings.TrimSpace(xff[strings.LastIndexByte(xff, ',')+1:])
		if ip := net.ParseIP(hop); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// credentialRoute is the last path segment: login, signup or
// refresh-token.
func credentialRoute(r *http.Request) string {
	return strings.ToLower(path.Base(strings.TrimSuffix(r.URL.Path, "/")))
}

// writePolicyHeaders emits the structured RateLimit-Policy and RateLimit
// fields, naming the policy so clients can tell the two limits apart.
func writePolicyHeaders(w http.ResponseWriter, p ThrottlePolicy, res *redis_rate.Result) {
	h := w.Header()
	h.Set("RateLimit-Policy", fmt.Sprintf("%q;q=%d;w=%d",
		p.Name, p.Limit.Rate, int(p.Limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%q;r=%d;t=%d",
		p.Name, max(res.Remaining, 0), ceilSeconds(res.ResetAfter)))
}

func writeThrottled(w http.ResponseWriter, message string, retry time.Duration) {
	secs := max(ceilSeconds(retry), 1)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	core.JSONError(w, core.NewAppError(
		core.ErrRateLimited,
		fmt.Sprintf("%s. Retry after %d seconds.", message, secs),
		http.StatusTooManyRequests,
		core.CodeRateLimited,
	))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// PerWindow builds a limit of rate requests per window, defaulting to one
// minute when window is unset.
func PerWindow(rate, burst int, window time.Duration) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: window,
	}
}

const bucketIdle = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// localBuckets is the per-process fallback. Idle buckets are swept on
// access instead of by a background goroutine.
type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	sweptAt time.Time
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.sweptAt) > bucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > bucketIdle {
				delete(l.buckets, k)
			}
		}
		l.sweptAt = now
	}

	perToken := limit.Period / time.Duration(max(limit.Rate, 1))
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(perToken), max(limit.Burst, 1))}
		l.buckets[key] = b
	}
	b.seen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if b.lim.AllowN(now, 1) {
		res.Allowed = 1
	}

	tokens := b.lim.TokensAt(now)
	if res.Allowed == 0 {
		res.RetryAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	res.Remaining = max(int(tokens), 0)
	res.ResetAfter = time.Duration((float64(b.lim.Burst()) - tokens) * float64(perToken))
	return res
}
