package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coffeespot/internal/domain"
	"coffeespot/internal/service/account"
	"coffeespot/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey string

const (
	principalCtxKey ctxKey = "principal"
	requestIDHeader        = "X-Request-ID"
	requestIDKey           = "request_id"
)

// requestID propagates an incoming X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger attaches a request scoped logger to the context and logs each request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With().Str(requestIDKey, c.GetString(requestIDKey)).Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = reqLogger.Error()
		case status >= 400:
			ev = reqLogger.Warn()
		default:
			ev = reqLogger.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// metrics records request counts and latency keyed by route template.
func metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		telemetry.HTTPInFlight.Inc()
		defer telemetry.HTTPInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		route := routeOf(c)
		telemetry.HTTPRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		telemetry.HTTPDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*account.Principal, error)
}

// authRequired rejects the request unless it carries a valid, unrevoked token
// for an existing account.
func authRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := auth.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

// optionalAuth resolves the principal when a token is present and lets the
// request through otherwise. A present but invalid token is still rejected.
func optionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		setPrincipal(c, p)
		c.Next()
	}
}

func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principalFrom(c)
		if !ok || p.Identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func setPrincipal(c *gin.Context, p *account.Principal) {
	c.Set(string(principalCtxKey), p)
	ctx := context.WithValue(c.Request.Context(), principalCtxKey, p)
	logger := zerolog.Ctx(ctx).With().Str("caller_id", p.Identity.ID).Logger()
	c.Request = c.Request.WithContext(logger.WithContext(ctx))
}

func principalFrom(c *gin.Context) (*account.Principal, bool) {
	v, ok := c.Get(string(principalCtxKey))
	if !ok {
		return nil, false
	}
	p, ok := v.(*account.Principal)
	return p, ok && p != nil
}

// caller returns the authenticated identity. Routes using it sit behind authRequired.
func caller(c *gin.Context) domain.Identity {
	if p, ok := principalFrom(c); ok {
		return p.Identity
	}
	return domain.Identity{}
}
