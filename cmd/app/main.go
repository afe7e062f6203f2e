package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/local/readcompanion/internal/archive"
	cfgpkg "github.com/local/readcompanion/internal/config"
	"github.com/local/readcompanion/internal/llm"
	logpkg "github.com/local/readcompanion/internal/logger"
	"github.com/local/readcompanion/internal/metrics"
	"github.com/local/readcompanion/internal/server"
	"github.com/local/readcompanion/internal/settings"
	"github.com/local/readcompanion/internal/vocab"
	"github.com/local/readcompanion/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Provider settings are read through the env-backed store on every call.
	store := settings.NewEnvStore()
	translator := llm.New(store)

	// Vocabulary store
	vs, err := vocab.NewStore(cfg.Store.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init vocabulary store")
	}
	defer vs.Close()

	// Optional S3 export archive
	var archiver server.Archiver
	if cfg.Archive.Bucket != "" {
		up, err := archive.NewUploader(context.Background(), archive.Options{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init export archive")
		}
		archiver = up
	}

	mux := http.NewServeMux()

	api := server.New(server.Dependencies{
		Translator: translator,
		Vocab:      vs,
		Archiver:   archiver,
		Settings:   store,
		Snapshot:   cfg.Snapshot,
		ArchivePW:  cfg.Archive.Password,
	})
	api.RegisterRoutes(mux)

	dashboard := web.New(vs, cfg.Server.WebUsername, cfg.Server.WebPassword)
	dashboard.RegisterRoutes(mux)

	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}
