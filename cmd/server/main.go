package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/circom-analyzer/frontend/internal/analysis"
	"github.com/circom-analyzer/frontend/internal/api"
	"github.com/circom-analyzer/frontend/internal/blob"
	"github.com/circom-analyzer/frontend/internal/config"
	"github.com/circom-analyzer/frontend/internal/download"
	"github.com/circom-analyzer/frontend/internal/upload"
	"github.com/circom-analyzer/frontend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configName = "circom-console.yaml"

// wsPath carries the long-lived state stream; request timeouts and
// compression would break it.
const wsPath = "/api/ws"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "circom-console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	configPath := filepath.Join(filepath.Dir(exePath), configName)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	client := analysis.NewClient(cfg.Analysis.BaseURL, analysis.WithRequestTimeout(cfg.GetRequestTimeout()))
	registry := blob.NewRegistry()
	sink, err := download.NewDirSink(cfg.Downloads.Directory, registry)
	if err != nil {
		return fmt.Errorf("initialize downloads: %w", err)
	}
	controller := upload.NewController(client, registry, sink, upload.WithDefaultFormat(cfg.GetDefaultFormat()))

	e := newEcho(cfg, api.NewHandlers(&api.Dependencies{
		Controller: controller,
		Downloads:  sink,
		Service:    client,
		Version:    Version,
	}))

	embedded := web.HasEmbeddedFiles()
	if embedded {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		}
	}

	banner(os.Stdout, cfg, configPath, client.BaseURL(), sink.Dir())
	if embedded {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	return e.StartServer(&http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  seconds(cfg.Server.ReadTimeout),
		WriteTimeout: seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  seconds(cfg.Server.IdleTimeout),
	})
}

// newEcho builds the console's HTTP surface: middleware from cfg plus the
// API routes.
func newEcho(cfg *config.AppConfig, handlers *api.Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	isStream := func(c echo.Context) bool { return c.Request().URL.Path == wsPath }

	if cfg.Advanced.EnableRequestLogging {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Skipper: func(c echo.Context) bool {
				return isStream(c) || c.Request().URL.Path == "/api/health"
			},
		}))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      seconds(cfg.Server.ReadTimeout),
		Skipper:      isStream,
		ErrorMessage: "Request timeout",
	}))
	if cfg.Advanced.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   cfg.Advanced.CompressionLevel,
			Skipper: isStream,
		}))
	}
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	if cfg.Server.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: allowedOrigins(cfg.Server.AllowOrigins),
		}))
	}

	api.RegisterRoutes(e, handlers)
	return e
}

// allowedOrigins splits a comma-separated list; empty means any origin.
func allowedOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func banner(w io.Writer, cfg *config.AppConfig, configPath, serviceURL, downloadDir string) {
	timeout := "none"
	if d := cfg.GetRequestTimeout(); d > 0 {
		timeout = d.String()
	}
	rows := [][2]string{
		{"Version", Version},
		{"Built", BuildTime},
		{"Config", configPath},
		{"Listen", "http://" + cfg.GetServerAddr()},
		{"Analysis", serviceURL},
		{"Timeout", timeout},
		{"Downloads", downloadDir},
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Circom Analyzer Console")
	for _, r := range rows {
		fmt.Fprintf(w, "  %-10s %s\n", r[0]+":", r[1])
	}
	fmt.Fprintln(w)
}
