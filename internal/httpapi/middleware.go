package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/mailAuth"
)

const slowRequest = 500 * time.Millisecond

// RequestLogger logs one line per request, at error for 5xx, warn for 4xx
// and debug otherwise. Health and metrics scrapes are not logged.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbe(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}

		// Route templates keep tokens out of the log.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		ev = ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("client", c.ClientIP())
		if latency > slowRequest {
			ev = ev.Bool("slow", true)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			ev = ev.Str("error", errs.String())
		}
		ev.Msg("Request completed")
	}
}

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("error", fmt.Sprintf("%v", err)).
					Str("stack", string(debug.Stack())).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Str("client_ip", c.ClientIP()).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestContext stores the client IP and the link base URL on the request
// context for the engine's limiters, audit events and emailed links.
func requestContext(baseURL string) gin.HandlerFunc {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c *gin.Context) {
		ctx := mailAuth.WithClientIP(c.Request.Context(), c.ClientIP())

		base := baseURL
		if base == "" {
			base = requestBaseURL(c.Request)
		}
		ctx = mailAuth.WithBaseURL(ctx, base)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if proto := strings.ToLower(r.Header.Get("X-Forwarded-Proto")); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/metrics"
}
