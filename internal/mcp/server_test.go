package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/ratelimit"
	"github.com/nvandessel/schedsim/internal/store"
)

// isolateHome sets HOME to a temp directory to avoid touching real ~/.schedsim/
func isolateHome(t *testing.T, tmpDir string) {
	t.Helper()
	tmpHome := filepath.Join(tmpDir, "home")
	if err := os.MkdirAll(tmpHome, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", tmpHome)
}

func newTestServer(t *testing.T, settings *config.SchedsimConfig) (*Server, string) {
	t.Helper()
	tmpDir := t.TempDir()
	isolateHome(t, tmpDir)

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Root:     tmpDir,
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, tmpDir
}

func TestNewServer(t *testing.T) {
	server, tmpDir := newTestServer(t, nil)

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.root != tmpDir {
		t.Errorf("Server.root = %q, want %q", server.root, tmpDir)
	}
	if _, ok := server.runs.(*store.SQLiteRunStore); !ok {
		t.Errorf("runs = %T, want *store.SQLiteRunStore with the default config", server.runs)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".schedsim", "schedsim.db")); err != nil {
		t.Errorf("expected database under .schedsim: %v", err)
	}
	if server.decisions != nil {
		t.Error("decision logger should be nil at info level")
	}
}

func TestNewServer_StoreDisabled(t *testing.T) {
	settings := config.Default()
	settings.Store.Enabled = false
	server, tmpDir := newTestServer(t, settings)

	if _, ok := server.runs.(*store.InMemoryRunStore); !ok {
		t.Errorf("runs = %T, want *store.InMemoryRunStore", server.runs)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".schedsim", "schedsim.db")); !os.IsNotExist(err) {
		t.Error("database file should not be created when the store is disabled")
	}
}

func TestNewServer_DebugEnablesDecisionLog(t *testing.T) {
	settings := config.Default()
	settings.Logging.Level = "debug"
	server, tmpDir := newTestServer(t, settings)

	want := filepath.Join(tmpDir, ".schedsim", "decisions.jsonl")
	if got := server.decisions.Path(); got != want {
		t.Errorf("decision log path = %q, want %q", got, want)
	}
}

func TestNewServer_HasRateLimiters(t *testing.T) {
	server, _ := newTestServer(t, nil)

	for _, tool := range []string{ratelimit.ToolSimulate, ratelimit.ToolCompare, ratelimit.ToolChart, ratelimit.ToolHistory} {
		if _, ok := server.toolLimiters[tool]; !ok {
			t.Errorf("missing rate limiter for %s", tool)
		}
	}
}

func TestClose(t *testing.T) {
	server, _ := newTestServer(t, nil)

	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Multiple closes should be safe
	if err := server.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}

func TestServer_ListToolsOverProtocol(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer clientSession.Close()

	tools, err := clientSession.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := make(map[string]bool)
	for _, tool := range tools.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{ratelimit.ToolSimulate, ratelimit.ToolCompare, ratelimit.ToolChart, ratelimit.ToolHistory} {
		if !got[want] {
			t.Errorf("tool %s not listed (got %v)", want, got)
		}
	}

	res, err := clientSession.CallTool(ctx, &sdk.CallToolParams{
		Name:      ratelimit.ToolSimulate,
		Arguments: map[string]any{"no_save": true},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool returned a tool error: %+v", res.Content)
	}
}
