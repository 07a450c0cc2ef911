package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"omniasr/internal/api"
	"omniasr/internal/assets"
	"omniasr/internal/cache"
	"omniasr/internal/config"
	"omniasr/internal/health"
	"omniasr/internal/media"
	"omniasr/internal/metrics"
	"omniasr/internal/segment"
	"omniasr/internal/storage"
	"omniasr/internal/stt"
	"omniasr/internal/transcribe"
	"omniasr/internal/vad"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("server exited with error", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	hs := health.New(log)
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return err
		}
		go func() {
			if err := hs.Serve(lis); err != nil {
				log.Errorw("gRPC health server stopped", "error", err)
			}
		}()
		defer hs.Stop()
	}

	if len(cfg.ModelAssets) > 0 {
		acq := assets.NewAcquirer(filepath.Join(cfg.ModelDir, cfg.ModelCard), assets.HTTPFetcher{}, log)
		if _, err := acq.Acquire(ctx, cfg.ModelAssets); err != nil {
			return err
		}
	}

	engine, err := stt.NewEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Infow("ASR engine initialized", "engine", engine.Name(), "model_card", cfg.ModelCard)

	spool, err := storage.NewSpool(cfg.SpoolDir)
	if err != nil {
		return err
	}
	decoder := media.NewAutoDecoder(media.NewFFmpegDecoder(cfg.FFmpegPath, spool, log), log)
	detector := vad.NewDetector(cfg.VADURL, &http.Client{Timeout: cfg.EngineTimeout}, log)
	vadOpts := vad.Options{
		MinSpeechMS:  cfg.VADMinSpeechMS,
		MaxSpeechS:   cfg.VADMaxSpeechS,
		MinSilenceMS: cfg.VADMinSilenceMS,
		PadMS:        cfg.VADSpeechPadMS,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	exporter, err := metrics.NewExporter(reg)
	if err != nil {
		return err
	}
	agg := metrics.NewAggregator(metrics.WithExporter(exporter), metrics.WithLogger(log))

	results := cache.NewTranscriptionCache(cfg.CacheMaxSize, cfg.CacheTTL, cache.WithLogger(log))
	languages := cache.NewDirectoryCache(cfg.LanguageCacheTTL, cache.WithLogger(log))

	orch := transcribe.NewOrchestrator(engine, decoder, segment.New(decoder, detector, vadOpts, log), cfg.BatchSize,
		transcribe.WithLogger(log))
	svc := transcribe.NewService(orch, results, agg, transcribe.WithLogger(log))

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.NewHandler(api.Deps{
		Service:   svc,
		Engine:    engine,
		Languages: languages,
		Metrics:   agg,
		Gatherer:  reg,
		Config:    cfg,
		Logger:    log,
	}).RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Infow("OmniASR API running", "port", cfg.Port, "auth", cfg.AuthEnabled())
		errCh <- srv.ListenAndServe()
	}()
	hs.SetServing(true)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", cfg.ShutdownTimeout)
	hs.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
