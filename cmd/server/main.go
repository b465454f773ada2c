package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aliyevm/telechat/internal/api"
	"github.com/aliyevm/telechat/internal/config"
	"github.com/aliyevm/telechat/internal/stats"
	"github.com/aliyevm/telechat/internal/store"
	"github.com/joho/godotenv"
)

const defaultSigningKey = "dGVsZWNoYXQtc2Vzc2lvbi1zaWduaW5nLWtleQ=="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var (
	addr           string
	dataDir        string
	storeBackend   string
	signingKey     string
	seed           bool
	allowedOrigins stringSliceFlag
)

func main() {
	// a missing .env is fine; real environments set variables directly
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("TELECHAT_ADDR", "localhost:3000"), "server address")
	flag.StringVar(&dataDir, "data-dir", envOr("TELECHAT_DATA_DIR", "data"), "directory for persisted collections")
	flag.StringVar(&storeBackend, "store", envOr("TELECHAT_STORE", config.BackendFile), "store backend (file or pebble)")
	flag.StringVar(&signingKey, "signing-key", envOr("TELECHAT_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.BoolVar(&seed, "seed", false, "create sample accounts if the user collection is empty")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[telechat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dataDir, storeBackend, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config: ", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	var backend store.Backend
	switch cfg.StoreBackend {
	case config.BackendPebble:
		backend, err = store.NewPebbleBackend(cfg.DataDir)
	default:
		backend, err = store.NewFileBackend(cfg.DataDir)
	}
	if err != nil {
		logger.Fatal("store backend: ", err)
	}

	repo, err := store.NewStore(backend, logger, statsUpdater)
	if err != nil {
		logger.Fatal("store open: ", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Println("store close:", err)
		}
	}()

	if seed {
		if err := store.Seed(repo); err != nil {
			logger.Fatal("seed: ", err)
		}
	}

	srv := api.NewTelechatApp(mux, logger, repo, statsUpdater, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
