package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/helioscover/helios"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML or JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("HELIOS_API_KEY")
	corsOrigins := os.Getenv("HELIOS_CORS_ORIGINS")

	engine, err := helios.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Build the graph on first start; later starts reuse the cache.
	if !engine.Cached() {
		slog.Info("no cached graph, rebuilding from documents", "dir", cfg.DocsDir)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		res, err := engine.Rebuild(ctx)
		cancel()
		if err != nil {
			slog.Error("initial rebuild failed", "error", err)
			os.Exit(1)
		}
		slog.Info("initial rebuild done", "documents", res.Documents, "edges", res.Edges)
	}

	h := newHandler(engine, cfg.DocsDir)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /risk", h.handleRisk)
	mux.HandleFunc("GET /policies", h.handlePolicies)
	mux.HandleFunc("GET /summaries", h.handleSummaries)
	mux.HandleFunc("GET /summaries/{policy}", h.handleSummary)
	mux.HandleFunc("POST /compare", h.handleCompare)
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // uploads trigger full rebuilds, which can be long
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// loadConfig reads the optional config file via viper and applies HELIOS_*
// environment overrides on top of the defaults.
func loadConfig(path string) (helios.Config, error) {
	cfg := helios.DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("HELIOS")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, err
		}
	}

	// Env overrides mirror the config structure.
	if s := v.GetString("DB_PATH"); s != "" {
		cfg.DBPath = s
	}
	if s := v.GetString("DOCS_DIR"); s != "" {
		cfg.DocsDir = s
	}
	if s := v.GetString("LLM_PROVIDER"); s != "" {
		cfg.LLM.Provider = s
	}
	if s := v.GetString("LLM_MODEL"); s != "" {
		cfg.LLM.Model = s
	}
	if s := v.GetString("LLM_BASE_URL"); s != "" {
		cfg.LLM.BaseURL = s
	}
	if s := v.GetString("LLM_API_KEY"); s != "" {
		cfg.LLM.APIKey = s
	}
	// Well-known provider env var as a fallback for hosted keys.
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openrouter" {
		cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	return cfg, nil
}
