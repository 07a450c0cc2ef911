// Package api exposes the transcription service over HTTP with gin.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"omniasr/internal/cache"
	"omniasr/internal/config"
	"omniasr/internal/metrics"
	"omniasr/internal/stt"
	"omniasr/internal/transcribe"
	"omniasr/internal/utils"
)

const (
	serviceName    = "OmniASR"
	serviceVersion = "2.3.0"
)

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Service   *transcribe.Service
	Engine    stt.Engine
	Languages *cache.DirectoryCache
	Metrics   *metrics.Aggregator
	Gatherer  prometheus.Gatherer
	Config    config.Config
	Logger    *zap.SugaredLogger
	Now       func() time.Time
}

// Handler holds the HTTP handlers and middleware.
type Handler struct {
	service   *transcribe.Service
	engine    stt.Engine
	languages *cache.DirectoryCache
	metrics   *metrics.Aggregator
	gatherer  prometheus.Gatherer
	cfg       config.Config

	group singleflight.Group
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Languages == nil {
		d.Languages = cache.NewDirectoryCache(d.Config.LanguageCacheTTL)
	}
	registerValidators()
	return &Handler{
		service:   d.Service,
		engine:    d.Engine,
		languages: d.Languages,
		metrics:   d.Metrics,
		gatherer:  d.Gatherer,
		cfg:       d.Config,
		now:       d.Now,
		log:       d.Logger.With("component", "api.Handler"),
	}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.corsMiddleware(), h.requestIDMiddleware(), h.observeMiddleware())

	r.GET("/health", h.healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	authed := r.Group("/", h.apiKeyMiddleware())
	{
		authed.GET("/languages", h.listLanguages)
		authed.POST("/transcribe", h.transcribe)
		authed.POST("/transcribe_large", h.transcribeLarge)

		authed.GET("/metrics/summary", h.metricsSummary)
		authed.GET("/metrics/recent/:kind", h.metricsRecent)
		authed.GET("/cache/stats", h.cacheStats)
		authed.DELETE("/cache", h.clearCache)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": float64(h.now().UnixMicro()) / 1e6,
		"version":   serviceVersion,
	})
}

// metricsSummary handles GET /metrics/summary
func (h *Handler) metricsSummary(c *gin.Context) {
	utils.Success(c, h.metrics.Summary())
}

// metricsRecent handles GET /metrics/recent/:kind?limit=N
func (h *Handler) metricsRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		utils.Error(c, http.StatusUnprocessableEntity, kindValidation, "limit must be an integer")
		return
	}
	records, ok := h.metrics.Recent(c.Param("kind"), limit)
	if !ok {
		utils.Error(c, http.StatusNotFound, kindHTTP, "Unknown metric type: "+c.Param("kind"))
		return
	}
	utils.Success(c, records)
}

func (h *Handler) cacheStats(c *gin.Context) {
	utils.Success(c, h.service.CacheStats())
}

func (h *Handler) clearCache(c *gin.Context) {
	h.service.ClearCache()
	h.languages.Clear()
	h.log.Infow("caches cleared", "request_id", utils.RequestID(c))
	utils.Success(c, gin.H{"status": "cleared"})
}
