package main

import (
	"context"
	"flag"
	nhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"

	"go-currency-exchange/config"
	"go-currency-exchange/exchange"
	"go-currency-exchange/http"
	"go-currency-exchange/ticker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	w := log.NewSyncWriter(os.Stderr)
	logger := log.NewLogfmtLogger(w)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if err := godotenv.Load(); err != nil {
		level.Info(logger).Log("msg", "no .env file found, relying on environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		level.Error(logger).Log("msg", "loading config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid config", "err", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	tickerService := ticker.NewService(
		ticker.WithUrl(cfg.Tickers.BaseURL),
		ticker.WithApiKey(cfg.Tickers.APIKey),
		ticker.WithTimeout(cfg.Tickers.Timeout),
	)
	tickerService = ticker.NewLoggingService(log.With(logger, "component", "ticker_rest"), tickerService)
	tickerService = ticker.NewFallbackService(log.With(logger, "component", "ticker_fallback"), tickerService)
	tickerCache := ticker.NewCache(level.Debug(log.With(logger, "component", "ticker_cache")), tickerService)

	exchangeService := exchange.NewService(tickerCache)
	exchangeService = exchange.NewLoggingService(log.With(logger, "component", "exchange"), exchangeService)

	server := &nhttp.Server{
		Addr:    cfg.Server.Addr,
		Handler: http.NewServer(exchangeService, log.With(logger, "component", "http")),
	}

	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != nhttp.ErrServerClosed {
			level.Error(logger).Log("msg", "server stopped", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		level.Error(logger).Log("msg", "shutdown", "err", err)
	}
}
