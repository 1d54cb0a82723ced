// ABOUTME: Entry point for the spincheck challenge server.
// ABOUTME: Provides serve, init, bootstrap, seed-catalog, and health subcommands.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/spincheck/spincheck/internal/api"
	"github.com/spincheck/spincheck/internal/auth"
	"github.com/spincheck/spincheck/internal/challenge"
	"github.com/spincheck/spincheck/internal/config"
	"github.com/spincheck/spincheck/internal/siteverify"
	"github.com/spincheck/spincheck/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the server config file.
// Priority: SPINCHECK_CONFIG env var > XDG_CONFIG_HOME/spincheck/config.yaml > ~/.config/spincheck/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SPINCHECK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "spincheck", "config.yaml")
}

// getDataPath returns the path to the spincheck data directory.
// Priority: XDG_DATA_HOME/spincheck > ~/.local/share/spincheck
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "spincheck")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: spincheck <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                            Start the challenge server")
		fmt.Println("  init                             Create a default config file")
		fmt.Println("  bootstrap --name NAME --origin O Create a tenant and print its keys")
		fmt.Println("  seed-catalog --ref REF           Register challenge content")
		fmt.Println("  health                           Check server health")
		fmt.Println("  version                          Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap":
		err = runBootstrap(ctx)
	case "seed-catalog":
		err = runSeedCatalog(ctx)
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	default:
		err = fmt.Errorf("unknown command: %s", os.Args[1])
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger configures the default slog logger from config.
func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// runServe starts the challenge server and blocks until shutdown.
func runServe(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setupLogger(cfg)
	logger := slog.Default().With("component", "server")

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	challenges := challenge.NewService(st, st, challenge.Options{
		SessionTTL:   cfg.Challenge.SessionTTL,
		PassTokenTTL: cfg.Challenge.PassTokenTTL,
		ToleranceDeg: cfg.Challenge.ToleranceDeg,
	})
	defer challenges.Close()

	sv := siteverify.NewService(st, challenges.Passes())
	gate := auth.NewGate(st, cfg.Quota.FreeTierLimit)
	server := api.NewServer(challenges, sv, gate, st, cfg.Quota.RatePerMinute)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("spincheck listening", "addr", cfg.Server.HTTPAddr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// runInit writes a default config file, refusing to overwrite an existing one.
func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	dbPath := filepath.Join(getDataPath(), "spincheck.db")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configContent := fmt.Sprintf(`# spincheck configuration
# Generated by spincheck init

server:
  http_addr: "localhost:8080"

database:
  path: "%s"

challenge:
  session_ttl: "5m"
  pass_token_ttl: "3m"
  tolerance_deg: 45

quota:
  free_tier_limit: 1000
  rate_per_minute: 120

logging:
  level: "info"
  format: "text"
`, dbPath)

	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	color.New(color.FgGreen).Printf("  ✓ Created config: %s\n", configPath)
	return nil
}

// originList collects repeated --origin flags.
type originList []string

func (o *originList) String() string { return strings.Join(*o, ",") }

func (o *originList) Set(value string) error {
	*o = append(*o, value)
	return nil
}

// runBootstrap creates a tenant and prints its keys. The secret key is shown
// exactly once; it is not recoverable later.
func runBootstrap(ctx context.Context) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	name := fs.String("name", "", "tenant name (required)")
	plan := fs.String("plan", store.PlanFree, "billing plan: free or paid")
	var origins originList
	fs.Var(&origins, "origin", "allowed origin (repeatable)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	*name = strings.TrimSpace(*name)
	if *name == "" {
		return fmt.Errorf("--name flag is required")
	}
	if len(origins) == 0 {
		return fmt.Errorf("at least one --origin flag is required")
	}
	if *plan != store.PlanFree && *plan != store.PlanPaid {
		return fmt.Errorf("invalid plan %q: must be free or paid", *plan)
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	apiKey, err := auth.NewOpaqueToken("pk_")
	if err != nil {
		return err
	}
	secretKey, err := auth.NewOpaqueToken("sk_")
	if err != nil {
		return err
	}

	tenant := &store.Tenant{
		Name:           *name,
		APIKey:         apiKey,
		SecretKey:      secretKey,
		AllowedOrigins: origins,
		Plan:           *plan,
	}
	if err := st.CreateTenant(ctx, tenant); err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Printf("  ✓ Created tenant: %s (%s)\n", tenant.Name, tenant.ID)
	fmt.Println()
	cyan.Printf("  API key (browser-facing):    %s\n", apiKey)
	cyan.Printf("  Secret key (backend-facing): %s\n", secretKey)
	fmt.Println()
	yellow.Println("  Store the secret key now. It will not be shown again.")
	return nil
}

// runSeedCatalog registers content references for challenge selection.
func runSeedCatalog(ctx context.Context) error {
	fs := flag.NewFlagSet("seed-catalog", flag.ExitOnError)
	var refs originList
	fs.Var(&refs, "ref", "content reference (repeatable)")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("at least one --ref flag is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	green := color.New(color.FgGreen)
	for _, ref := range refs {
		if err := st.AddContent(ctx, &store.ContentItem{ContentRef: ref}); err != nil {
			return fmt.Errorf("adding %q: %w", ref, err)
		}
		green.Printf("  ✓ Registered: %s\n", ref)
	}
	return nil
}

// runHealth checks the running server's health endpoint.
func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching server: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy (status %d)", resp.StatusCode)
	}
	color.New(color.FgGreen).Printf("  ✓ %s is healthy\n", cfg.Server.HTTPAddr)
	return nil
}
