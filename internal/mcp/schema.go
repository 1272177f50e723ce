package mcp

import (
	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/models"
)

// workloadSource is the part of a tool input that selects the processes to
// run on. At most one source may be set; with none the project workload
// or the built-in one is used.
type workloadSource struct {
	Processes []models.Process
	Path      string
	Content   string
	Format    string
}

// SimulateInput defines the input for the schedsim_simulate tool.
type SimulateInput struct {
	Processes      []models.Process `json:"processes,omitempty" jsonschema:"Inline processes with pid, arrival, burst and priority"`
	Path           string           `json:"path,omitempty" jsonschema:"Workload file (.json, .yaml or .csv) relative to the project root"`
	Content        string           `json:"content,omitempty" jsonschema:"Raw workload text, decoded according to format"`
	Format         string           `json:"format,omitempty" jsonschema:"Format of content: json, yaml or csv (default: json)"`
	BurstWeight    *int             `json:"burst_weight,omitempty" jsonschema:"Rank weight A applied to remaining burst (default from config)"`
	PriorityWeight *int             `json:"priority_weight,omitempty" jsonschema:"Rank weight B applied to priority (default from config)"`
	NoSave         bool             `json:"no_save,omitempty" jsonschema:"Skip recording the run in history"`
}

func (in SimulateInput) source() workloadSource {
	return workloadSource{in.Processes, in.Path, in.Content, in.Format}
}

// Averages are the headline metrics of one schedule.
type Averages struct {
	Turnaround float64 `json:"turnaround"`
	Waiting    float64 `json:"waiting"`
	Response   float64 `json:"response"`
}

// SimulateOutput defines the output for the schedsim_simulate tool.
type SimulateOutput struct {
	RunID    string       `json:"run_id,omitempty" jsonschema:"History ID of the saved run"`
	Source   string       `json:"source" jsonschema:"Where the workload came from"`
	Result   aadrr.Result `json:"result" jsonschema:"Timeline, completions, quantum log and decision log"`
	Averages Averages     `json:"averages" jsonschema:"Average turnaround, waiting and response time"`
	Makespan int          `json:"makespan" jsonschema:"Completion time of the last process"`
	Message  string       `json:"message" jsonschema:"Human-readable result message"`
}

// CompareInput defines the input for the schedsim_compare tool.
type CompareInput struct {
	Processes      []models.Process `json:"processes,omitempty" jsonschema:"Inline processes with pid, arrival, burst and priority"`
	Path           string           `json:"path,omitempty" jsonschema:"Workload file (.json, .yaml or .csv) relative to the project root"`
	Content        string           `json:"content,omitempty" jsonschema:"Raw workload text, decoded according to format"`
	Format         string           `json:"format,omitempty" jsonschema:"Format of content: json, yaml or csv (default: json)"`
	BurstWeight    *int             `json:"burst_weight,omitempty" jsonschema:"AADRR rank weight A (default from config)"`
	PriorityWeight *int             `json:"priority_weight,omitempty" jsonschema:"AADRR rank weight B (default from config)"`
	RRQuantum      *int             `json:"rr_quantum,omitempty" jsonschema:"Round robin time slice (default from config)"`
}

func (in CompareInput) source() workloadSource {
	return workloadSource{in.Processes, in.Path, in.Content, in.Format}
}

// AlgorithmSummary is one row of a comparison.
type AlgorithmSummary struct {
	Name            string   `json:"name"`
	Averages        Averages `json:"averages"`
	Makespan        int      `json:"makespan"`
	ContextSwitches int      `json:"context_switches"`
}

// CompareOutput defines the output for the schedsim_compare tool.
type CompareOutput struct {
	Source     string             `json:"source" jsonschema:"Where the workload came from"`
	Algorithms []AlgorithmSummary `json:"algorithms" jsonschema:"Per-algorithm averages in run order"`
	Best       compare.Best       `json:"best" jsonschema:"Winning algorithm per metric"`
	Message    string             `json:"message" jsonschema:"Human-readable summary"`
}

// ChartInput defines the input for the schedsim_chart tool.
type ChartInput struct {
	Processes []models.Process `json:"processes,omitempty" jsonschema:"Inline processes with pid, arrival, burst and priority"`
	Path      string           `json:"path,omitempty" jsonschema:"Workload file (.json, .yaml or .csv) relative to the project root"`
	Content   string           `json:"content,omitempty" jsonschema:"Raw workload text, decoded according to format"`
	Format    string           `json:"format,omitempty" jsonschema:"Format of content: json, yaml or csv (default: json)"`
	Kind      string           `json:"kind,omitempty" jsonschema:"Chart to render: gantt, comparison or html (default: gantt)"`
}

func (in ChartInput) source() workloadSource {
	return workloadSource{in.Processes, in.Path, in.Content, in.Format}
}

// ChartOutput defines the output for the schedsim_chart tool.
type ChartOutput struct {
	Kind     string `json:"kind" jsonschema:"Chart that was rendered"`
	MIMEType string `json:"mime_type" jsonschema:"image/svg+xml or text/html"`
	Content  string `json:"content" jsonschema:"Rendered document"`
}

// HistoryInput defines the input for the schedsim_history tool.
type HistoryInput struct {
	ID        string `json:"id,omitempty" jsonschema:"Return a single run including its full result"`
	Algorithm string `json:"algorithm,omitempty" jsonschema:"Only list runs of this algorithm"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of runs to list (default: 20)"`
}

// RunListItem provides a list view of a stored run.
type RunListItem struct {
	ID             string   `json:"id"`
	Algorithm      string   `json:"algorithm"`
	CreatedAt      string   `json:"created_at"`
	Source         string   `json:"source,omitempty"`
	InputHash      string   `json:"input_hash"`
	BurstWeight    int      `json:"burst_weight"`
	PriorityWeight int      `json:"priority_weight"`
	ProcessCount   int      `json:"process_count"`
	Averages       Averages `json:"averages"`
	Makespan       int      `json:"makespan"`
}

// HistoryOutput defines the output for the schedsim_history tool.
type HistoryOutput struct {
	Runs   []RunListItem `json:"runs" jsonschema:"Runs, newest first"`
	Count  int           `json:"count" jsonschema:"Number of runs returned"`
	Result any           `json:"result,omitempty" jsonschema:"Full stored result when id is set"`
}
