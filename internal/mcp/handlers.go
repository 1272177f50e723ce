package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/loader"
	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
	"github.com/nvandessel/schedsim/internal/pathutil"
	"github.com/nvandessel/schedsim/internal/ratelimit"
	"github.com/nvandessel/schedsim/internal/report"
	"github.com/nvandessel/schedsim/internal/store"
	"github.com/nvandessel/schedsim/internal/visualization"
)

const (
	recentRunsURI  = "schedsim://runs/recent"
	runURIPrefix   = "schedsim://runs/"
	defaultHistory = 20
	maxHistory     = 500
)

// registerTools registers all schedsim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolSimulate,
		Description: "Run the AADRR scheduler over a workload and return the timeline, completions, quantum log, decision log and average metrics",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolCompare,
		Description: "Compare AADRR against FCFS and round robin on the same workload and report the best algorithm per metric",
	}, s.handleCompare)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolChart,
		Description: "Render a Gantt chart (SVG), a comparison bar chart (SVG) or a full HTML report for a workload",
	}, s.handleChart)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ratelimit.ToolHistory,
		Description: "List previously saved simulation runs, or fetch one run by ID",
	}, s.handleHistory)
}

// registerResources registers MCP resources for recent run history.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         recentRunsURI,
		Name:        "schedsim-recent-runs",
		Description: "The most recent simulation runs with their average metrics.",
		MIMEType:    "text/markdown",
	}, s.handleRecentRunsResource)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: runURIPrefix + "{id}",
		Name:        "schedsim-run",
		Description: "Full stored result of one simulation run.",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

// handleSimulate implements the schedsim_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolSimulate, start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path, "content": args.Content, "format": args.Format,
			"process_count":   len(args.Processes),
			"burst_weight":    args.BurstWeight,
			"priority_weight": args.PriorityWeight,
			"no_save":         args.NoSave,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	procs, source, err := s.loadWorkload(args.source())
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	cfg := aadrr.Config{
		BurstWeight:    valueOr(args.BurstWeight, s.settings.Engine.BurstWeight),
		PriorityWeight: valueOr(args.PriorityWeight, s.settings.Engine.PriorityWeight),
		Logger:         s.logger,
	}
	eng, err := aadrr.NewEngine(procs, cfg)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("invalid workload: %w", err)
	}
	res, err := eng.Run()
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("simulation failed: %w", err)
	}
	summary, err := metrics.Compute(procs, res.Schedule())
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("computing metrics: %w", err)
	}

	out := SimulateOutput{
		Source:   source,
		Result:   *res,
		Averages: averagesOf(summary),
		Makespan: summary.Makespan,
	}

	if !args.NoSave {
		run, err := store.NewRun(procs, summary, res)
		if err != nil {
			return nil, SimulateOutput{}, err
		}
		run.Source = source
		run.BurstWeight = cfg.BurstWeight
		run.PriorityWeight = cfg.PriorityWeight
		id, err := s.runs.SaveRun(ctx, run)
		if err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("saving run: %w", err)
		}
		out.RunID = id
	}
	s.decisions.LogDecisions(out.RunID, aadrr.AlgorithmName, res.DecisionLog)

	out.Message = fmt.Sprintf("Simulated %d processes in %d cycles: avg turnaround %.2f, avg waiting %.2f, avg response %.2f",
		len(procs), len(res.DecisionLog), out.Averages.Turnaround, out.Averages.Waiting, out.Averages.Response)
	return nil, out, nil
}

// handleCompare implements the schedsim_compare tool.
func (s *Server) handleCompare(ctx context.Context, req *sdk.CallToolRequest, args CompareInput) (_ *sdk.CallToolResult, _ CompareOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolCompare, start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path, "content": args.Content, "format": args.Format,
			"process_count":   len(args.Processes),
			"burst_weight":    args.BurstWeight,
			"priority_weight": args.PriorityWeight,
			"rr_quantum":      args.RRQuantum,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolCompare); err != nil {
		return nil, CompareOutput{}, err
	}

	procs, source, err := s.loadWorkload(args.source())
	if err != nil {
		return nil, CompareOutput{}, err
	}

	opts := compare.Options{
		BurstWeight:    valueOr(args.BurstWeight, s.settings.Engine.BurstWeight),
		PriorityWeight: valueOr(args.PriorityWeight, s.settings.Engine.PriorityWeight),
		RRQuantum:      valueOr(args.RRQuantum, s.settings.Baselines.RRQuantum),
	}
	if opts.RRQuantum <= 0 {
		return nil, CompareOutput{}, fmt.Errorf("rr_quantum must be positive, got %d", opts.RRQuantum)
	}

	cmp, err := compare.Run(ctx, procs, compare.DefaultSchedulers(opts)...)
	if err != nil {
		return nil, CompareOutput{}, fmt.Errorf("comparison failed: %w", err)
	}

	algorithms := make([]AlgorithmSummary, 0, len(cmp.Entries))
	for _, e := range cmp.Entries {
		algorithms = append(algorithms, AlgorithmSummary{
			Name:            e.Name,
			Averages:        averagesOf(e.Summary),
			Makespan:        e.Summary.Makespan,
			ContextSwitches: e.Summary.ContextSwitches,
		})
	}
	best := cmp.Best()

	return nil, CompareOutput{
		Source:     source,
		Algorithms: algorithms,
		Best:       best,
		Message: fmt.Sprintf("Best turnaround: %s, best waiting: %s, best response: %s, best balanced: %s",
			best.Turnaround, best.Waiting, best.Response, best.Balanced),
	}, nil
}

// handleChart implements the schedsim_chart tool.
func (s *Server) handleChart(ctx context.Context, req *sdk.CallToolRequest, args ChartInput) (_ *sdk.CallToolResult, _ ChartOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolChart, start, retErr, sanitizeToolParams(map[string]any{
			"path": args.Path, "content": args.Content, "format": args.Format,
			"process_count": len(args.Processes),
			"kind":          args.Kind,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolChart); err != nil {
		return nil, ChartOutput{}, err
	}

	kind := args.Kind
	if kind == "" {
		kind = "gantt"
	}
	if kind != "gantt" && kind != "comparison" && kind != "html" {
		return nil, ChartOutput{}, fmt.Errorf("unsupported chart kind %q (use 'gantt', 'comparison', or 'html')", kind)
	}

	procs, source, err := s.loadWorkload(args.source())
	if err != nil {
		return nil, ChartOutput{}, err
	}

	labels, err := report.LabelsFor(s.settings.Output.Language)
	if err != nil {
		return nil, ChartOutput{}, err
	}
	rep, err := visualization.BuildReport(ctx, procs, s.compareOptions(), labels)
	if err != nil {
		return nil, ChartOutput{}, fmt.Errorf("building report: %w", err)
	}

	switch kind {
	case "gantt":
		return nil, ChartOutput{Kind: kind, MIMEType: "image/svg+xml", Content: visualization.RenderGanttSVG(rep.Result.Timeline)}, nil
	case "comparison":
		return nil, ChartOutput{Kind: kind, MIMEType: "image/svg+xml", Content: visualization.RenderComparisonSVG(rep.Comparison)}, nil
	default:
		rep.Source = source
		page, err := visualization.RenderHTML(*rep)
		if err != nil {
			return nil, ChartOutput{}, err
		}
		return nil, ChartOutput{Kind: kind, MIMEType: "text/html", Content: string(page)}, nil
	}
}

// handleHistory implements the schedsim_history tool.
func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ratelimit.ToolHistory, start, retErr, sanitizeToolParams(map[string]any{
			"id": args.ID, "algorithm": args.Algorithm, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, ratelimit.ToolHistory); err != nil {
		return nil, HistoryOutput{}, err
	}

	if args.ID != "" {
		run, err := s.runs.GetRun(ctx, args.ID)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		var result any
		if len(run.Result) > 0 {
			if err := json.Unmarshal(run.Result, &result); err != nil {
				return nil, HistoryOutput{}, fmt.Errorf("decoding stored result: %w", err)
			}
		}
		return nil, HistoryOutput{Runs: []RunListItem{runListItem(*run)}, Count: 1, Result: result}, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistory
	}
	limit = min(limit, maxHistory)

	runs, err := s.runs.ListRuns(ctx, store.RunFilter{Algorithm: args.Algorithm, Limit: limit})
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("listing runs: %w", err)
	}
	items := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, runListItem(r))
	}
	return nil, HistoryOutput{Runs: items, Count: len(items)}, nil
}

// handleRecentRunsResource renders the latest runs as a markdown table.
func (s *Server) handleRecentRunsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	runs, err := s.runs.ListRuns(ctx, store.RunFilter{Limit: 10})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Recent Simulation Runs\n\n")
	if len(runs) == 0 {
		sb.WriteString("No runs recorded yet. Run a workload with `schedsim_simulate`.\n")
	} else {
		sb.WriteString("| ID | Algorithm | Processes | Avg TAT | Avg WT | Avg RT | Created |\n")
		sb.WriteString("|----|-----------|-----------|---------|--------|--------|---------|\n")
		for _, r := range runs {
			fmt.Fprintf(&sb, "| %s | %s | %d | %.2f | %.2f | %.2f | %s |\n",
				r.ID, r.Algorithm, r.ProcessCount, r.AvgTurnaround, r.AvgWaiting, r.AvgResponse,
				r.CreatedAt.UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(&sb, "\n---\n*Full results available via %s{id}*\n", runURIPrefix)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      recentRunsURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleRunResource returns one stored run as JSON.
// URI format: schedsim://runs/{id}
func (s *Server) handleRunResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, runURIPrefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	id := strings.TrimPrefix(uri, runURIPrefix)
	if id == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	run, err := s.runs.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return nil, sdk.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding run: %w", err)
	}
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// loadWorkload resolves the processes a tool call refers to.
func (s *Server) loadWorkload(src workloadSource) ([]models.Process, string, error) {
	set := 0
	for _, present := range []bool{len(src.Processes) > 0, src.Path != "", src.Content != ""} {
		if present {
			set++
		}
	}
	if set > 1 {
		return nil, "", fmt.Errorf("only one of 'processes', 'path' or 'content' may be given")
	}

	switch {
	case len(src.Processes) > 0:
		return models.CloneProcesses(src.Processes), "inline", nil

	case src.Content != "":
		format := loader.FormatJSON
		if src.Format != "" {
			f, err := loader.ParseFormat(src.Format)
			if err != nil {
				return nil, "", err
			}
			format = f
		}
		procs, err := loader.Decode(strings.NewReader(src.Content), format)
		if err != nil {
			return nil, "", fmt.Errorf("decoding content: %w", err)
		}
		return procs, "content", nil

	case src.Path != "":
		resolved, err := pathutil.ResolveWorkload(s.root, src.Path)
		if err != nil {
			return nil, "", fmt.Errorf("workload path rejected: %w", err)
		}
		procs, err := loader.Load(resolved)
		if err != nil {
			return nil, "", err
		}
		return procs, src.Path, nil

	default:
		return loader.LoadOrDefault(s.root, "")
	}
}

func (s *Server) compareOptions() compare.Options {
	return compare.Options{
		BurstWeight:    s.settings.Engine.BurstWeight,
		PriorityWeight: s.settings.Engine.PriorityWeight,
		RRQuantum:      s.settings.Baselines.RRQuantum,
	}
}

func averagesOf(summary metrics.Summary) Averages {
	return Averages{
		Turnaround: summary.AvgTurnaround,
		Waiting:    summary.AvgWaiting,
		Response:   summary.AvgResponse,
	}
}

func runListItem(r store.Run) RunListItem {
	return RunListItem{
		ID:             r.ID,
		Algorithm:      r.Algorithm,
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		Source:         r.Source,
		InputHash:      r.InputHash,
		BurstWeight:    r.BurstWeight,
		PriorityWeight: r.PriorityWeight,
		ProcessCount:   r.ProcessCount,
		Averages: Averages{
			Turnaround: r.AvgTurnaround,
			Waiting:    r.AvgWaiting,
			Response:   r.AvgResponse,
		},
		Makespan: r.Makespan,
	}
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
