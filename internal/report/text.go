// Package report renders schedules, logs and comparisons for people (text
// tables) and for programs (JSON).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
)

// Renderer writes text reports to W using L for every label.
type Renderer struct {
	W io.Writer
	L Labels
}

// NewRenderer returns a renderer for the given language.
func NewRenderer(w io.Writer, lang string) (*Renderer, error) {
	labels, err := LabelsFor(lang)
	if err != nil {
		return nil, err
	}
	return &Renderer{W: w, L: labels}, nil
}

func (r *Renderer) title(s string) {
	fmt.Fprintf(r.W, "\n%s\n%s\n", s, strings.Repeat("=", len([]rune(s))))
}

func (r *Renderer) table(header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.W)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

// Timeline prints the Gantt strip followed by one row per slot.
func (r *Renderer) Timeline(timeline []models.Slot) {
	r.title(r.L.Timeline)
	fmt.Fprint(r.W, GanttStrip(timeline, r.L.Idle))

	t := r.table([]string{r.L.Process, r.L.Start, r.L.End})
	for _, s := range timeline {
		t.Append([]string{s.PID, strconv.Itoa(s.Start), strconv.Itoa(s.End)})
	}
	t.Render()
}

// GanttStrip draws the timeline as a one-line bar with boundary times below.
// Gaps between slots, including any before the first slot, are idle cells.
func GanttStrip(timeline []models.Slot, idle string) string {
	if len(timeline) == 0 {
		return ""
	}

	type cell struct {
		label      string
		start, end int
	}
	var cells []cell
	now := 0
	for _, s := range timeline {
		if s.Start > now {
			cells = append(cells, cell{label: idle, start: now, end: s.Start})
		}
		cells = append(cells, cell{label: s.PID, start: s.Start, end: s.End})
		now = s.End
	}

	var bar, axis strings.Builder
	bar.WriteString("|")
	for _, c := range cells {
		width := max(len(c.label)+2, len(strconv.Itoa(c.start))+1)
		pad := width - len(c.label)
		left := pad / 2
		bar.WriteString(strings.Repeat(" ", left) + c.label + strings.Repeat(" ", pad-left) + "|")

		mark := strconv.Itoa(c.start)
		axis.WriteString(mark + strings.Repeat(" ", width+1-len(mark)))
	}
	axis.WriteString(strconv.Itoa(cells[len(cells)-1].end))
	return bar.String() + "\n" + axis.String() + "\n"
}

// Completions prints the completion records in completion order.
func (r *Renderer) Completions(completed []models.Completion) {
	r.title(r.L.Completions)
	t := r.table([]string{r.L.Process, r.L.Arrival, r.L.Burst, r.L.Completion, r.L.Turnaround, r.L.Waiting, r.L.Response})
	for _, c := range completed {
		t.Append([]string{
			c.PID,
			strconv.Itoa(c.Arrival),
			strconv.Itoa(c.Burst),
			strconv.Itoa(c.Completion),
			strconv.Itoa(c.Turnaround),
			strconv.Itoa(c.Waiting),
			strconv.Itoa(c.Response),
		})
	}
	t.Render()
}

// QuantumLog prints the quantum chosen at each cycle start.
func (r *Renderer) QuantumLog(log []models.QuantumEntry) {
	r.title(r.L.QuantumLog)
	t := r.table([]string{r.L.Time, r.L.Quantum})
	for _, q := range log {
		t.Append([]string{strconv.Itoa(q.Time), strconv.Itoa(q.Quantum)})
	}
	t.Render()
}

// DecisionLog prints each cycle with its ranked ready set.
func (r *Renderer) DecisionLog(log []models.Decision) {
	r.title(r.L.DecisionLog)
	t := r.table([]string{r.L.Cycle, r.L.Time, r.L.Quantum, r.L.Ranked})
	for _, d := range log {
		t.Append([]string{
			strconv.Itoa(d.Cycle),
			strconv.Itoa(d.StartTime),
			strconv.Itoa(d.Quantum),
			strings.Join(d.RankedPIDs, " > "),
		})
	}
	t.Render()
}

// Metrics prints the per-process rows with averages in the footer.
func (r *Renderer) Metrics(s metrics.Summary) {
	heading := r.L.Metrics
	if s.Algorithm != "" {
		heading = fmt.Sprintf("%s: %s", r.L.Metrics, s.Algorithm)
	}
	r.title(heading)

	t := r.table([]string{r.L.Process, r.L.Arrival, r.L.Burst, r.L.Completion, r.L.Turnaround, r.L.Waiting, r.L.Response})
	for _, row := range s.Rows {
		t.Append([]string{
			row.PID,
			strconv.Itoa(row.Arrival),
			strconv.Itoa(row.Burst),
			strconv.Itoa(row.Completion),
			strconv.Itoa(row.Turnaround),
			strconv.Itoa(row.Waiting),
			strconv.Itoa(row.Response),
		})
	}
	t.SetFooter([]string{r.L.Average, "", "", "",
		formatAvg(s.AvgTurnaround), formatAvg(s.AvgWaiting), formatAvg(s.AvgResponse)})
	t.Render()

	fmt.Fprintf(r.W, "%s: %d | %s: %.1f%% | %s: %.3f/t | %s: %d\n",
		r.L.Makespan, s.Makespan,
		r.L.Utilization, s.Utilization*100,
		r.L.Throughput, s.Throughput,
		r.L.ContextSwitches, s.ContextSwitches)
}

// Comparison prints one averaged row per scheduler and the best-of summary.
func (r *Renderer) Comparison(c *compare.Comparison) {
	r.title(r.L.Comparison)
	t := r.table([]string{r.L.Algorithm, r.L.Turnaround, r.L.Waiting, r.L.Response, r.L.Makespan, r.L.ContextSwitches})
	for _, e := range c.Entries {
		t.Append([]string{
			e.Name,
			formatAvg(e.Summary.AvgTurnaround),
			formatAvg(e.Summary.AvgWaiting),
			formatAvg(e.Summary.AvgResponse),
			strconv.Itoa(e.Summary.Makespan),
			strconv.Itoa(e.Summary.ContextSwitches),
		})
	}
	t.Render()

	best := c.Best()
	r.title(r.L.Best)
	lookup := func(name string, pick func(metrics.Summary) float64) string {
		e, ok := c.Entry(name)
		if !ok {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, formatAvg(pick(e.Summary)))
	}
	fmt.Fprintf(r.W, "  %s: %s\n", r.L.BestTurnaround, lookup(best.Turnaround, func(s metrics.Summary) float64 { return s.AvgTurnaround }))
	fmt.Fprintf(r.W, "  %s: %s\n", r.L.BestWaiting, lookup(best.Waiting, func(s metrics.Summary) float64 { return s.AvgWaiting }))
	fmt.Fprintf(r.W, "  %s: %s\n", r.L.BestResponse, lookup(best.Response, func(s metrics.Summary) float64 { return s.AvgResponse }))
	fmt.Fprintf(r.W, "  %s: %s\n", r.L.MostBalanced, best.Balanced)
}

func formatAvg(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
