// Command silhouette-match starts the Silhouette Match game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config and data directories, debug logging, version
// output, and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/silhouette-match/api"
	"github.com/wricardo/silhouette-match/game/config"
	"github.com/wricardo/silhouette-match/game/persist"
	"github.com/wricardo/silhouette-match/game/play"
	"github.com/wricardo/silhouette-match/game/service"
	"github.com/wricardo/silhouette-match/game/session"
	"github.com/wricardo/silhouette-match/logging"
	"github.com/wricardo/silhouette-match/transport/mcp"
	"github.com/wricardo/silhouette-match/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Silhouette Match Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = 1 * time.Hour
	syncInterval    = 5 * time.Second
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envDefault("CONFIG_DIR", "configs"), "Directory containing level configurations")
	dataDir      = flag.String("data-dir", envDefault("DATA_DIR", "data"), "Directory for sessions and saved car transforms")
	staticDir    = flag.String("static-dir", envDefault("STATIC_DIR", ""), "Directory of static files served at / (optional)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	logLevel     = flag.String("log-level", envDefault("LOG_LEVEL", ""), "Log level: debug, info, warn, error")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
	origins      = flag.String("allowed-origins", envDefault("ALLOWED_ORIGINS", ""), "Comma-separated browser origins allowed on /ws (empty allows any)")
)

// newHub builds the websocket hub with the configured origin allowlist
func newHub(log *zap.Logger) *websocket.Hub {
	allowed := strings.Split(*origins, ",")
	if *origins == "" {
		log.Warn("websocket accepts any origin, set -allowed-origins to restrict it")
	}
	return websocket.NewHub(log.Named("ws"), websocket.WithAllowedOrigins(allowed...))
}

// envDefault returns the environment variable key, or def when it is unset.
func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	envErr := godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	level := *logLevel
	if *debug && level == "" {
		level = "debug"
	}
	log, err := logging.New(logging.Options{Level: level, Development: *debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// A missing .env is normal
	if envErr == nil {
		log.Info("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.Warn("error loading .env file", zap.Error(envErr))
	}

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	log.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", mode))

	app, err := initializeServices(*configDir, *dataDir, log)
	if err != nil {
		log.Fatal("failed to initialize services", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		err = runStdioMCPWithInternalServer(ctx, app)
	case "server", "http":
		err = runHTTPServer(ctx, app)
	default:
		log.Fatal("unknown mode, use 'server' (default) or 'stdio-mcp'", zap.String("mode", mode))
	}

	if serr := app.shutdown(); serr != nil {
		log.Warn("failed to flush state", zap.Error(serr))
	}
	if err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
	log.Info("server stopped")
}

// application holds the wired services shared by every mode.
type application struct {
	log         *zap.Logger
	configs     *config.Manager
	sessions    *session.Manager
	persistence *session.FilePersistence
	prefs       *persist.FilePrefs
	service     service.GameService
}

// initializeServices wires the config manager, the transform store, session
// persistence and the game service.
func initializeServices(configDir, dataDir string, log *zap.Logger) (*application, error) {
	configManager, err := config.NewManager(configDir, log.Named("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	prefs, err := persist.OpenFilePrefs(filepath.Join(dataDir, "transforms.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to open transform store: %w", err)
	}
	store := persist.NewTransformStore(prefs)

	persistence, err := session.NewFilePersistence(filepath.Join(dataDir, "sessions"), configManager,
		play.Options{Store: store, Logger: log.Named("round")})
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManager(session.Options{
		Persistence: persistence,
		Store:       store,
		Logger:      log.Named("session"),
	})

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn("failed to load persisted sessions", zap.Error(err))
	}

	return &application{
		log:         log,
		configs:     configManager,
		sessions:    sessionManager,
		persistence: persistence,
		prefs:       prefs,
		service:     service.NewGameService(sessionManager, configManager, log.Named("service")),
	}, nil
}

// shutdown flushes sessions and saved transforms to disk
func (a *application) shutdown() error {
	return errors.Join(a.sessions.SaveAllSessions(), a.prefs.Save())
}

// handler builds the HTTP handler: REST API, WebSocket and the /mcp endpoint.
func (a *application) handler(hub *websocket.Hub, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL, a.log.Named("mcp"))
	return api.NewServer(a.service, hub, api.Options{
		StaticDir: *staticDir,
		Handlers:  map[string]http.Handler{"/mcp": mcpClient.HTTPHandler()},
		Logger:    a.log.Named("api"),
	})
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
// Everything runs until ctx is cancelled.
func runHTTPServer(ctx context.Context, app *application) error {
	log := app.log
	addr := fmt.Sprintf("%s:%d", *host, *port)

	hub := newHub(log)
	router := app.handler(hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(ctx) })

	g.Go(func() error {
		log.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if ngrokShouldRun() {
		g.Go(func() error { return runNgrok(ctx, router, log) })
	}

	g.Go(func() error { return sessionCleanupRoutine(ctx, app.sessions, cleanupInterval, log) })
	g.Go(func() error { return filesystemSyncRoutine(ctx, app.sessions, app.persistence, syncInterval, log) })

	return g.Wait()
}

// ngrokShouldRun checks the flag, then NGROK_ENABLED.
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	v := os.Getenv("NGROK_ENABLED")
	return v == "true" || v == "1"
}

// ngrokAuthToken returns the token from the flag or either env spelling
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if t := os.Getenv("NGROK_AUTHTOKEN"); t != "" {
		return t
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrok serves router through an ngrok tunnel until ctx is done. A missing
// token or a failed tunnel is logged and does not stop the server.
func runNgrok(ctx context.Context, router http.Handler, log *zap.Logger) error {
	authToken := ngrokAuthToken()
	if authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return nil
	}

	log.Info("starting ngrok tunnel")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error("failed to start ngrok tunnel", zap.Error(err))
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	log.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("ws", url+"/ws?session=<session_id>"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, router); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error("ngrok server error", zap.Error(err))
	}
	log.Info("ngrok tunnel closed")
	return nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory once their file has been
// deleted from disk.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration, log *zap.Logger) error {
	if persistence == nil {
		return nil
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pruned := 0
			for _, s := range manager.List() {
				if persistence.Exists(s.ID) {
					continue
				}
				if err := manager.DeleteFromMemory(s.ID); err == nil {
					pruned++
					log.Info("pruned session from memory (file deleted)", zap.String("session", s.ID))
				}
			}
			if pruned > 0 {
				log.Info("filesystem sync", zap.Int("pruned", pruned))
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, app *application) error {
	log := app.log
	externalURL := "http://localhost:8080"
	baseURL := externalURL

	log.Info("checking for external API server", zap.String("url", externalURL))

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info("external API server found, using it for MCP", zap.String("url", externalURL))
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		hub := newHub(log)
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: app.handler(hub, baseURL)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		log.Info("internal HTTP server for MCP stdio", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL, log.Named("mcp"))
	log.Info("MCP stdio server ready", zap.String("api", baseURL))

	return server.ServeStdio(mcpClient.GetMCPServer())
}
