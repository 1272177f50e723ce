package visualization

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func startServer(t *testing.T) (*Server, context.CancelFunc, chan error) {
	t.Helper()
	srv := NewServer(buildPairReport(t))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	waitForServer(t, srv, 2*time.Second)
	return srv, cancel, errCh
}

func TestServer_ServesHTML(t *testing.T) {
	srv, cancel, _ := startServer(t)
	defer cancel()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") {
		t.Error("page has no embedded chart")
	}
}

func TestServer_ReportEndpoint(t *testing.T) {
	srv, cancel, _ := startServer(t)
	defer cancel()

	resp, err := http.Get("http://" + srv.Addr() + "/api/report")
	if err != nil {
		t.Fatalf("GET /api/report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got Report
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if got.Result == nil || len(got.Result.Timeline) != 2 {
		t.Fatalf("Result = %+v, want two slots", got.Result)
	}
	if got.Best.Turnaround != "AADRR" {
		t.Errorf("Best.Turnaround = %q, want AADRR", got.Best.Turnaround)
	}
}

func TestServer_UnknownPath(t *testing.T) {
	srv, cancel, _ := startServer(t)
	defer cancel()

	resp, err := http.Get("http://" + srv.Addr() + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_ReportRejectsPost(t *testing.T) {
	srv, cancel, _ := startServer(t)
	defer cancel()

	resp, err := http.Post("http://"+srv.Addr()+"/api/report", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /api/report: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_CleanShutdown(t *testing.T) {
	_, cancel, errCh := startServer(t)

	cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected error on shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down within 3 seconds")
	}
}

// waitForServer polls the server until it's ready or the timeout is reached.
func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		addr := srv.Addr()
		if addr == "" {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}
