// Package mcp provides an MCP (Model Context Protocol) server for schedsim.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/logging"
	"github.com/nvandessel/schedsim/internal/ratelimit"
	"github.com/nvandessel/schedsim/internal/store"
)

// Server wraps the MCP SDK server and exposes the schedsim tools.
type Server struct {
	server       *sdk.Server
	runs         store.RunStore
	root         string
	settings     *config.SchedsimConfig
	logger       *slog.Logger
	decisions    *logging.DecisionLogger
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters

	closeOnce sync.Once
	closeErr  error
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "schedsim")
	Version string // Server version
	Root    string // Project root; workload paths resolve against it

	// Settings defaults to config.Default when nil.
	Settings *config.SchedsimConfig

	// Logger defaults to a discard logger. Stdout carries the protocol,
	// so callers should point it at stderr.
	Logger *slog.Logger
}

// NewServer creates an MCP server with the schedsim tools registered. Run
// history goes to SQLite when the store is enabled and to memory otherwise.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	var runs store.RunStore
	if settings.Store.Enabled {
		sqliteStore, err := store.NewSQLiteRunStore(settings.StorePath(root))
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		runs = sqliteStore
	} else {
		runs = store.NewInMemoryRunStore()
	}

	stateDir := store.LocalPath(root)

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		runs:         runs,
		root:         root,
		settings:     settings,
		logger:       logger,
		decisions:    logging.NewDecisionLogger(stateDir, settings.Logging.Level),
		auditLogger:  NewAuditLogger(stateDir),
		toolLimiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled or
// the process receives an interrupt. The server is closed on return.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			s.logger.Info("signal received, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close releases the run store and log files. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.decisions.Close()
		s.auditLogger.Close()
		s.closeErr = s.runs.Close()
	})
	return s.closeErr
}
