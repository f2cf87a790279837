package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/metrics"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// accessLog logs one line per request and feeds the HTTP metrics. The
// route template is used as path label to keep its cardinality bounded.
func accessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		done := metrics.HTTPStarted(c.Request.Method, path)
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		done(status)
		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter keeps a token bucket per client address. Buckets idle for
// longer than ttl are swept on access.
type ipLimiter struct {
	mu        sync.Mutex
	perSecond rate.Limit
	burst     int
	ttl       time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(perSecond, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		ttl:       5 * time.Minute,
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > l.ttl {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.perSecond, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

func rateLimit(limit RateLimit) gin.HandlerFunc {
	if limit.PerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newIPLimiter(limit.PerSecond, limit.Burst)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			respondError(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// authRequired resolves the bearer token to a principal and stores it in
// the request context.
func authRequired(users authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.StripBearerPrefix(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, http.StatusUnauthorized, "missing token")
			c.Abort()
			return
		}
		p, err := users.Authenticate(c.Request.Context(), token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(auth.ContextWithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := auth.PrincipalFromContext(c.Request.Context())
		if !p.HasAnyRole(roles...) {
			respondError(c, http.StatusForbidden, common.ErrorForbidden.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
