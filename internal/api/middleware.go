package api

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"omniasr/internal/model"
	"omniasr/internal/utils"
)

// corsMiddleware allows the configured origins. "*" allows any origin; the
// request origin is echoed so credentials keep working.
func (h *Handler) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-API-Key, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Process-Time")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent, and
// stamps X-Process-Time on the response.
func (h *Handler) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(utils.RequestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Writer = &timedWriter{ResponseWriter: c.Writer, start: h.now(), now: h.now}
		c.Next()
	}
}

// observeMiddleware logs every request and records it in the aggregator.
func (h *Handler) observeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := h.now()
		c.Next()
		elapsed := h.now().Sub(start)

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		status := c.Writer.Status()
		h.log.Infow("request handled",
			"request_id", utils.RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
		if h.metrics != nil {
			h.metrics.RecordRequest(endpoint, c.Request.Method, status, elapsed)
		}
	}
}

// apiKeyMiddleware checks X-API-Key against the configured keys. It is a
// no-op when no keys are configured.
func (h *Handler) apiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.cfg.AuthEnabled() {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if key == "" {
			utils.Error(c, http.StatusUnauthorized, kindHTTP, "API key required. Provide X-API-Key header.")
			return
		}
		if !slices.Contains(h.cfg.APIKeys, key) {
			h.log.Warnw("invalid API key", "request_id", utils.RequestID(c))
			utils.Error(c, http.StatusForbidden, kindHTTP, "Invalid API key")
			return
		}
		c.Next()
	}
}

// timedWriter sets X-Process-Time right before the status line goes out.
type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	now     func() time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true
	elapsed := model.Round(w.now().Sub(w.start).Seconds(), 3)
	w.Header().Set("X-Process-Time", strconv.FormatFloat(elapsed, 'f', -1, 64))
}

func (w *timedWriter) WriteHeader(code int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(code)
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}
