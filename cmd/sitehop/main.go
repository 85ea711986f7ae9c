package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blakewilliams/sitehop"
	"github.com/blakewilliams/sitehop/pkg/metrics"
	"github.com/blakewilliams/sitehop/pkg/middleware/logging"
	"github.com/blakewilliams/sitehop/pkg/siteimporter"
	"github.com/blakewilliams/sitehop/pkg/tracinghooks"
)

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime)

	server, err := sitehop.NewServer()
	if err != nil {
		logger.Fatal(err)
	}
	server.Addr = getAddr()
	server.Logger = logger
	server.HmacSecret = os.Getenv("HMAC_SECRET")
	server.LogFilter.Allow("site", "zoom")

	if err := loadSites(server); err != nil {
		logger.Fatalf("could not load site configuration: %v", err)
	}

	if endpoint, ok := os.LookupEnv("TRACING_ENDPOINT"); ok {
		server.ConfigureTracing(endpoint, getEnv("SERVICE_NAME", "sitehop"), getBool("TRACING_INSECURE"))
	}
	tracinghooks.AddHooks(server)
	metrics.AddResolveHook(server)

	server.AroundRequest = func(handler http.Handler) http.Handler {
		return logging.Middleware(server.Logger, server.LogFilter)(handler)
	}

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Printf("shutdown failed: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}

func loadSites(server *sitehop.Server) error {
	if configURL, ok := os.LookupEnv("SITES_URL"); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return siteimporter.LoadHttp(ctx, server, configURL)
	}

	return siteimporter.LoadFile(server, getEnv("SITES_FILE", "config/sites.yaml"))
}

func getAddr() string {
	if _, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(os.Getenv("PORT"))

		if err != nil {
			panic(err)
		}

		return "localhost:" + strconv.Itoa(port)
	}

	return "localhost:3005"
}

func getEnv(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}

	return fallback
}

func getBool(name string) bool {
	value, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && value
}
