package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxIdleLimiters bounds the limiter map before full buckets are dropped.
const maxIdleLimiters = 1024

// claimLimiter keeps one token bucket per user.
type claimLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newClaimLimiter allows perMinute claims per user with the given burst.
func newClaimLimiter(perMinute, burst int) *claimLimiter {
	return &claimLimiter{
		limiters: make(map[int64]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *claimLimiter) allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[userID]
	if !ok {
		if len(l.limiters) >= maxIdleLimiters {
			l.prune()
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = lim
	}
	return lim.Allow()
}

// prune drops buckets that have refilled; they behave like new ones.
func (l *claimLimiter) prune() {
	for id, lim := range l.limiters {
		if lim.Tokens() >= float64(l.burst) {
			delete(l.limiters, id)
		}
	}
}

// middleware rejects over-limit callers with 429. It must run after
// authentication.
func (l *claimLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims != nil && !l.allow(claims.UserID) {
			w.Header().Set("Retry-After", "60")
			jsonError(w, http.StatusTooManyRequests, "too many claim attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
