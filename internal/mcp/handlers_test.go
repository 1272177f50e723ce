package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/config"
	"github.com/nvandessel/schedsim/internal/models"
	"github.com/nvandessel/schedsim/internal/ratelimit"
)

var twoProcs = []models.Process{
	{PID: "P1", Arrival: 0, Burst: 8, Priority: 2},
	{PID: "P2", Arrival: 0, Burst: 4, Priority: 1},
}

func intPtr(v int) *int { return &v }

func TestHandleSimulate_Inline(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	result, out, err := server.handleSimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Processes: twoProcs})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if result != nil {
		t.Error("Expected nil result (SDK auto-populates)")
	}

	if out.Source != "inline" {
		t.Errorf("Source = %q, want inline", out.Source)
	}
	if len(out.Result.Timeline) != 2 || out.Result.Timeline[0].PID != "P2" {
		t.Errorf("Timeline = %+v, want P2 first", out.Result.Timeline)
	}
	if out.Averages != (Averages{Turnaround: 8, Waiting: 2, Response: 2}) {
		t.Errorf("Averages = %+v, want {8 2 2}", out.Averages)
	}
	if out.Makespan != 12 {
		t.Errorf("Makespan = %d, want 12", out.Makespan)
	}
	if out.RunID == "" {
		t.Fatal("expected the run to be saved")
	}

	run, err := server.runs.GetRun(ctx, out.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Algorithm != aadrr.AlgorithmName || run.Source != "inline" || run.BurstWeight != 10 || run.PriorityWeight != 5 {
		t.Errorf("stored run = %+v", run)
	}
}

func TestHandleSimulate_WeightsAndNoSave(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	procs := []models.Process{
		{PID: "small-lazy", Arrival: 0, Burst: 2, Priority: 9},
		{PID: "big-urgent", Arrival: 0, Burst: 6, Priority: 0},
	}
	_, out, err := server.handleSimulate(ctx, nil, SimulateInput{
		Processes:      procs,
		BurstWeight:    intPtr(0),
		PriorityWeight: intPtr(1),
		NoSave:         true,
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if got := out.Result.DecisionLog[0].RankedPIDs[0]; got != "big-urgent" {
		t.Errorf("priority-only head = %s, want big-urgent", got)
	}
	if out.RunID != "" {
		t.Errorf("RunID = %q, want empty with no_save", out.RunID)
	}

	_, hist, err := server.handleHistory(ctx, nil, HistoryInput{})
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}
	if hist.Count != 0 {
		t.Errorf("history Count = %d, want 0", hist.Count)
	}
}

func TestHandleSimulate_NegativeWeight(t *testing.T) {
	server, _ := newTestServer(t, nil)

	// A negative burst weight favours the longest remaining burst.
	_, out, err := server.handleSimulate(context.Background(), nil, SimulateInput{
		Processes:      twoProcs,
		BurstWeight:    intPtr(-1),
		PriorityWeight: intPtr(0),
		NoSave:         true,
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if got := out.Result.Timeline[0]; got.PID != "P1" || got.End != 6 {
		t.Errorf("first slot = %+v, want P1 0-6", got)
	}
}

func TestHandleSimulate_Errors(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		args    SimulateInput
		wantErr string
	}{
		{"two sources", SimulateInput{Processes: twoProcs, Path: "jobs.csv"}, "only one of"},
		{"path escapes root", SimulateInput{Path: "../jobs.csv"}, "workload path rejected"},
		{"missing file", SimulateInput{Path: "absent.json"}, "opening workload"},
		{"bad format", SimulateInput{Content: "x", Format: "toml"}, "unknown workload format"},
		{"invalid process", SimulateInput{Processes: []models.Process{{PID: "X", Burst: 0}}}, "invalid workload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleSimulate(ctx, nil, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("handleSimulate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHandleSimulate_PathAndContent(t *testing.T) {
	server, tmpDir := newTestServer(t, nil)
	ctx := context.Background()

	csv := "pid,arrival,burst,priority\nP1,0,8,2\nP2,0,4,1\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "jobs.csv"), []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}

	_, fromPath, err := server.handleSimulate(ctx, nil, SimulateInput{Path: "jobs.csv", NoSave: true})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	_, fromContent, err := server.handleSimulate(ctx, nil, SimulateInput{Content: csv, Format: "csv", NoSave: true})
	if err != nil {
		t.Fatalf("content: %v", err)
	}

	if fromPath.Source != "jobs.csv" || fromContent.Source != "content" {
		t.Errorf("sources = %q, %q", fromPath.Source, fromContent.Source)
	}
	if fromPath.Averages != fromContent.Averages {
		t.Errorf("averages differ: %+v vs %+v", fromPath.Averages, fromContent.Averages)
	}
}

func TestHandleSimulate_DefaultWorkload(t *testing.T) {
	server, _ := newTestServer(t, nil)

	_, out, err := server.handleSimulate(context.Background(), nil, SimulateInput{NoSave: true})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if out.Source != "built-in" {
		t.Errorf("Source = %q, want built-in", out.Source)
	}
	if len(out.Result.Completed) != 6 {
		t.Errorf("completed %d processes, want 6", len(out.Result.Completed))
	}
}

func TestHandleSimulate_WritesDecisionLog(t *testing.T) {
	settings := config.Default()
	settings.Logging.Level = "debug"
	server, tmpDir := newTestServer(t, settings)

	_, out, err := server.handleSimulate(context.Background(), nil, SimulateInput{Processes: twoProcs})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	f, err := os.Open(filepath.Join(tmpDir, ".schedsim", "decisions.jsonl"))
	if err != nil {
		t.Fatalf("open decisions.jsonl: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("bad line %q: %v", scanner.Text(), err)
		}
		if entry["run_id"] != out.RunID {
			t.Errorf("run_id = %v, want %s", entry["run_id"], out.RunID)
		}
		lines++
	}
	if lines != len(out.Result.DecisionLog) {
		t.Errorf("logged %d cycles, want %d", lines, len(out.Result.DecisionLog))
	}
}

func TestHandleCompare(t *testing.T) {
	server, _ := newTestServer(t, nil)

	_, out, err := server.handleCompare(context.Background(), nil, CompareInput{Processes: twoProcs})
	if err != nil {
		t.Fatalf("handleCompare failed: %v", err)
	}

	want := map[string]Averages{
		aadrr.AlgorithmName: {8, 2, 2},
		"FCFS":              {10, 4, 4},
		"RR(q=4)":           {10, 4, 2},
	}
	if len(out.Algorithms) != len(want) {
		t.Fatalf("got %d algorithms, want %d", len(out.Algorithms), len(want))
	}
	for _, a := range out.Algorithms {
		w, ok := want[a.Name]
		if !ok {
			t.Errorf("unexpected algorithm %s", a.Name)
			continue
		}
		if math.Abs(a.Averages.Turnaround-w.Turnaround) > 1e-9 || math.Abs(a.Averages.Waiting-w.Waiting) > 1e-9 {
			t.Errorf("%s averages = %+v, want %+v", a.Name, a.Averages, w)
		}
	}
	if out.Best.Balanced != aadrr.AlgorithmName {
		t.Errorf("Best.Balanced = %s, want %s", out.Best.Balanced, aadrr.AlgorithmName)
	}
	if !strings.Contains(out.Message, "best balanced: AADRR") {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestHandleCompare_Quantum(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleCompare(ctx, nil, CompareInput{Processes: twoProcs, RRQuantum: intPtr(2)})
	if err != nil {
		t.Fatalf("handleCompare failed: %v", err)
	}
	found := false
	for _, a := range out.Algorithms {
		if a.Name == "RR(q=2)" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected RR(q=2) in %+v", out.Algorithms)
	}

	if _, _, err := server.handleCompare(ctx, nil, CompareInput{Processes: twoProcs, RRQuantum: intPtr(0)}); err == nil {
		t.Error("expected an error for a zero quantum")
	}
}

func TestHandleChart(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		kind     string
		mime     string
		contains string
	}{
		{"", "image/svg+xml", "<svg"},
		{"gantt", "image/svg+xml", "P2"},
		{"comparison", "image/svg+xml", "FCFS"},
		{"html", "text/html", "<html"},
	}
	for _, tt := range tests {
		t.Run("kind="+tt.kind, func(t *testing.T) {
			_, out, err := server.handleChart(ctx, nil, ChartInput{Processes: twoProcs, Kind: tt.kind})
			if err != nil {
				t.Fatalf("handleChart failed: %v", err)
			}
			if out.MIMEType != tt.mime {
				t.Errorf("MIMEType = %q, want %q", out.MIMEType, tt.mime)
			}
			if !strings.Contains(out.Content, tt.contains) {
				t.Errorf("content missing %q", tt.contains)
			}
		})
	}

	if _, _, err := server.handleChart(ctx, nil, ChartInput{Kind: "pie"}); err == nil {
		t.Error("expected error for unsupported kind")
	}
}

func TestHandleHistory(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	var ids []string
	for range 3 {
		_, out, err := server.handleSimulate(ctx, nil, SimulateInput{Processes: twoProcs})
		if err != nil {
			t.Fatalf("handleSimulate failed: %v", err)
		}
		ids = append(ids, out.RunID)
	}

	_, list, err := server.handleHistory(ctx, nil, HistoryInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}
	if list.Count != 2 || len(list.Runs) != 2 {
		t.Fatalf("Count = %d, want 2", list.Count)
	}
	if list.Runs[0].ID != ids[2] {
		t.Errorf("first run = %s, want newest %s", list.Runs[0].ID, ids[2])
	}
	if list.Result != nil {
		t.Error("list should not carry a full result")
	}

	_, one, err := server.handleHistory(ctx, nil, HistoryInput{ID: ids[0]})
	if err != nil {
		t.Fatalf("handleHistory(id) failed: %v", err)
	}
	if one.Count != 1 || one.Runs[0].ID != ids[0] {
		t.Errorf("single run = %+v", one.Runs)
	}
	result, ok := one.Result.(map[string]any)
	if !ok || result["timeline"] == nil {
		t.Errorf("Result = %v, want stored engine result", one.Result)
	}

	if _, _, err := server.handleHistory(ctx, nil, HistoryInput{ID: "nope"}); err == nil {
		t.Error("expected error for unknown run ID")
	}
}

func TestHandlers_RateLimited(t *testing.T) {
	server, _ := newTestServer(t, nil)
	server.toolLimiters = ratelimit.ToolLimiters{ratelimit.ToolSimulate: ratelimit.NewLimiter(0, 1)}
	ctx := context.Background()

	if _, _, err := server.handleSimulate(ctx, nil, SimulateInput{Processes: twoProcs, NoSave: true}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, _, err := server.handleSimulate(ctx, nil, SimulateInput{Processes: twoProcs, NoSave: true})
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("second call error = %v, want rate limit", err)
	}
}

func TestResources(t *testing.T) {
	server, _ := newTestServer(t, nil)
	ctx := context.Background()

	empty, err := server.handleRecentRunsResource(ctx, &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: recentRunsURI}})
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if !strings.Contains(empty.Contents[0].Text, "No runs recorded yet") {
		t.Errorf("empty resource = %q", empty.Contents[0].Text)
	}

	_, out, err := server.handleSimulate(ctx, nil, SimulateInput{Processes: twoProcs})
	if err != nil {
		t.Fatal(err)
	}

	recent, err := server.handleRecentRunsResource(ctx, &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: recentRunsURI}})
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if !strings.Contains(recent.Contents[0].Text, out.RunID) {
		t.Errorf("recent runs missing %s:\n%s", out.RunID, recent.Contents[0].Text)
	}

	uri := runURIPrefix + out.RunID
	one, err := server.handleRunResource(ctx, &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: uri}})
	if err != nil {
		t.Fatalf("run resource: %v", err)
	}
	if one.Contents[0].MIMEType != "application/json" || !strings.Contains(one.Contents[0].Text, out.RunID) {
		t.Errorf("run resource = %+v", one.Contents[0])
	}

	if _, err := server.handleRunResource(ctx, &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: runURIPrefix + "missing"}}); err == nil {
		t.Error("expected not-found error")
	}
}
