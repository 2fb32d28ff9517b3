// Command restyle-web serves the restyler API and a small browser form.
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ui-restyler/internal/config"
	"github.com/fpang/ui-restyler/internal/logging"
	"github.com/fpang/ui-restyler/internal/webapi"
)

//go:embed static
var staticFS embed.FS

var version = "dev"

// CLI flags
var (
	configFlag  string
	portFlag    int
	originsFlag []string
)

var rootCmd = &cobra.Command{
	Use:   "restyle-web",
	Short: "Web UI and API for restyling UI screenshots",
	Long: `Restyle Web starts a local web server with a form for uploading a
screenshot, editing brand tokens, choosing edit steps, and downloading the
results of a run.

Examples:
  restyle-web
  restyle-web --port 9090
  restyle-web --config configs/restyle.yaml`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Config file")
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default from config)")
	rootCmd.Flags().StringSliceVar(&originsFlag, "allow-origin", nil, "Extra CORS origin prefixes")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	start := time.Now()
	logging.Init()

	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.InitWithLevel(cfg.LogLevel)
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = portFlag
	}
	if err := os.MkdirAll(cfg.SaveDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SaveDir).Msg("Failed to create save directory")
	}

	api := webapi.New(webapi.Config{
		SaveDir:          cfg.SaveDir,
		SampleTokensPath: cfg.SampleTokensPath,
		Defaults: webapi.Defaults{
			Backend:            cfg.Variant(),
			Seed:               cfg.Seed,
			StrengthMultiplier: cfg.StrengthMultiplier,
			SeedJitter:         cfg.SeedJitter,
		},
		BackendOptions: cfg.BackendOptions(),
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Metrics:        cfg.MetricsEmitter(),
		AllowedOrigins: originsFlag,
	})

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to access embedded static files")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", api.Handler())
	mux.Handle("/healthz", api.Handler())
	mux.Handle("/", withSecurityHeaders(http.FileServer(http.FS(staticSub))))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown did not complete cleanly")
		}
	}()

	logging.NewStartupLogger("restyle-web").
		Version(version).
		Feature("metrics", cfg.Metrics.Enabled).
		Config("backend", cfg.Backend).
		Config("saveDir", cfg.SaveDir).
		Config("address", srv.Addr).
		InitDuration(time.Since(start)).
		Log()

	fmt.Printf("\n  UI Restyler: http://localhost:%d\n\n", cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// withSecurityHeaders sets the static page headers. API responses are
// JSON or images and skip them.
func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' blob: data:; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; connect-src 'self'")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		}
		next.ServeHTTP(w, r)
	})
}
