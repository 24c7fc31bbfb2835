package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gologme/log"
	"github.com/joho/godotenv"

	aiservice "github.com/nhle/mail-dashboard/internal/ai"
	"github.com/nhle/mail-dashboard/internal/app"
	"github.com/nhle/mail-dashboard/internal/credential"
	"github.com/nhle/mail-dashboard/internal/inbox"
	"github.com/nhle/mail-dashboard/internal/mailapi"
	"github.com/nhle/mail-dashboard/internal/model"
	appsync "github.com/nhle/mail-dashboard/internal/sync"
)

// Environment variables checked before the system keyring.
const (
	envSessionToken = "MAILDASH_SESSION"
	envAPIKey       = "ANTHROPIC_API_KEY"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	logger, closeLog, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "maildash: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger.Infoln("starting maildash")

	// Everything long-running hangs off this context; a signal cancels
	// it, which stops the poller and shuts the program down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infoln("shutdown signal received")
		cancel()
	}()

	path := *configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		logger.Errorf("load config: %v", err)
		fmt.Fprintf(os.Stderr, "maildash: load config: %v\n", err)
		os.Exit(1)
	}

	session := sessionToken(logger)
	if session == "" {
		logger.Warnln("no session token configured; backend calls will be unauthenticated")
	}

	client := mailapi.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.SessionCookie,
		session,
		time.Duration(cfg.Backend.TimeoutSec)*time.Second,
		logger,
	)
	vm := inbox.NewViewModel(client)

	interval := time.Duration(cfg.Display.RefreshIntervalSec) * time.Second
	poller := appsync.New(vm, interval, logger)
	poller.Start(ctx)

	assistant := loadAssistant(cfg, logger)

	p := tea.NewProgram(
		app.New(cfg, path, vm, poller, assistant),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		// Cancellation through the signal handler is a normal exit.
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			logger.Infoln("maildash stopped")
			return
		}
		logger.Errorf("program exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "maildash: %v\n", err)
		os.Exit(1)
	}
	logger.Infoln("maildash stopped")
}

// newLogger opens the log file and enables the requested levels. The
// TUI owns the terminal, so log output never goes to stdout.
func newLogger(debug bool) (*log.Logger, func(), error) {
	path := model.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	logger := log.New(f, "", log.Ldate|log.Ltime)
	logger.EnableLevel("error")
	logger.EnableLevel("warn")
	logger.EnableLevel("info")
	if debug {
		logger.EnableLevel("debug")
	}
	return logger, func() { f.Close() }, nil
}

// sessionToken resolves the backend session token, preferring the
// environment over the system keyring.
func sessionToken(logger *log.Logger) string {
	if token := os.Getenv(envSessionToken); token != "" {
		return token
	}
	token, err := credential.Get(credential.KeySessionToken)
	if err != nil {
		logger.Debugf("session token not found in keyring: %v", err)
		return ""
	}
	return token
}

// loadAssistant builds the AI reply assistant when an API key is
// available. Returns nil otherwise; the AI panel then shows setup help.
func loadAssistant(cfg *model.AppConfig, logger *log.Logger) *aiservice.Assistant {
	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		var err error
		apiKey, err = credential.Get(credential.KeyClaudeAPIKey)
		if err != nil || apiKey == "" {
			logger.Infoln("no Claude API key configured; AI replies disabled")
			return nil
		}
	}
	return aiservice.New(apiKey, cfg.AI.Model, cfg.AI.MaxTokens)
}
