// Package visualization renders schedules and comparisons as SVG charts and a
// self-contained HTML report, and serves them over a local HTTP server.
package visualization

import (
	"fmt"
	"html"
	"math"
	"slices"
	"strings"

	"github.com/nvandessel/schedsim/internal/compare"
	"github.com/nvandessel/schedsim/internal/models"
)

// palette is cycled by pid (Gantt) or metric (comparison).
var palette = []string{
	"steelblue",
	"tomato",
	"mediumseagreen",
	"goldenrod",
	"mediumpurple",
	"lightseagreen",
	"sandybrown",
	"slategray",
}

const (
	ganttLeft     = 70
	ganttTop      = 20
	ganttRow      = 30
	ganttBar      = 22
	ganttWidth    = 960
	ganttAxisRoom = 30
)

// RenderGanttSVG draws one row per pid (sorted by pid) with a bar per slot and
// a tick for every slot boundary on the time axis.
func RenderGanttSVG(timeline []models.Slot) string {
	pids := make([]string, 0)
	seen := make(map[string]bool)
	makespan := 0
	for _, s := range timeline {
		if !seen[s.PID] {
			seen[s.PID] = true
			pids = append(pids, s.PID)
		}
		makespan = max(makespan, s.End)
	}
	slices.Sort(pids)

	row := make(map[string]int, len(pids))
	for i, pid := range pids {
		row[pid] = i
	}

	scale := 1.0
	if makespan > 0 {
		scale = float64(ganttWidth-ganttLeft-20) / float64(makespan)
	}
	height := ganttTop + len(pids)*ganttRow + ganttAxisRoom
	axisY := ganttTop + len(pids)*ganttRow

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="Helvetica" font-size="12">`+"\n", ganttWidth, height)

	for i, pid := range pids {
		y := ganttTop + i*ganttRow
		fmt.Fprintf(&b, `  <text x="%d" y="%d" text-anchor="end">%s</text>`+"\n", ganttLeft-8, y+ganttBar-6, html.EscapeString(pid))
	}

	for _, s := range timeline {
		x := float64(ganttLeft) + float64(s.Start)*scale
		w := float64(s.Duration()) * scale
		y := ganttTop + row[s.PID]*ganttRow
		color := palette[row[s.PID]%len(palette)]
		fmt.Fprintf(&b, `  <rect x="%.1f" y="%d" width="%.1f" height="%d" fill="%s" stroke="white"><title>%s %d-%d</title></rect>`+"\n",
			x, y, w, ganttBar, color, html.EscapeString(s.PID), s.Start, s.End)
	}

	fmt.Fprintf(&b, `  <line x1="%d" y1="%d" x2="%.1f" y2="%d" stroke="black"/>`+"\n",
		ganttLeft, axisY, float64(ganttLeft)+float64(makespan)*scale, axisY)
	for _, t := range boundaries(timeline) {
		x := float64(ganttLeft) + float64(t)*scale
		fmt.Fprintf(&b, `  <line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="black"/>`+"\n", x, axisY, x, axisY+4)
		fmt.Fprintf(&b, `  <text x="%.1f" y="%d" text-anchor="middle">%d</text>`+"\n", x, axisY+18, t)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// boundaries returns the sorted distinct slot start and end times.
func boundaries(timeline []models.Slot) []int {
	var ts []int
	for _, s := range timeline {
		ts = append(ts, s.Start, s.End)
	}
	slices.Sort(ts)
	return slices.Compact(ts)
}

const (
	barLeft   = 50
	barTop    = 30
	barHeight = 240
	barWidth  = 24
	barGap    = 36
)

// metricNames are the averaged metrics drawn per algorithm, in bar order.
var metricNames = []string{"TAT", "WT", "RT"}

// RenderComparisonSVG draws grouped bars of average turnaround, waiting and
// response time for every algorithm in c.
func RenderComparisonSVG(c *compare.Comparison) string {
	var entries []compare.Entry
	if c != nil {
		entries = c.Entries
	}

	peak := 0.0
	for _, e := range entries {
		peak = max(peak, e.Summary.AvgTurnaround, e.Summary.AvgWaiting, e.Summary.AvgResponse)
	}
	ceiling := math.Max(1, math.Ceil(peak))

	groupWidth := len(metricNames)*barWidth + barGap
	width := barLeft + len(entries)*groupWidth + 140
	height := barTop + barHeight + 40
	baseY := barTop + barHeight

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" font-family="Helvetica" font-size="12">`+"\n", width, height)
	fmt.Fprintf(&b, `  <line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", barLeft, baseY, width-140, baseY)
	fmt.Fprintf(&b, `  <text x="%d" y="%d" text-anchor="end">%s</text>`+"\n", barLeft-6, barTop+4, formatValue(ceiling))
	fmt.Fprintf(&b, `  <text x="%d" y="%d" text-anchor="end">0</text>`+"\n", barLeft-6, baseY+4)

	for i, e := range entries {
		gx := barLeft + barGap/2 + i*groupWidth
		values := []float64{e.Summary.AvgTurnaround, e.Summary.AvgWaiting, e.Summary.AvgResponse}
		for j, v := range values {
			h := v / ceiling * barHeight
			x := gx + j*barWidth
			fmt.Fprintf(&b, `  <rect x="%d" y="%.1f" width="%d" height="%.1f" fill="%s"><title>%s %s %s</title></rect>`+"\n",
				x, float64(baseY)-h, barWidth-2, h, palette[j], html.EscapeString(e.Name), metricNames[j], formatValue(v))
			fmt.Fprintf(&b, `  <text x="%d" y="%.1f" text-anchor="middle" font-size="10">%s</text>`+"\n",
				x+barWidth/2, float64(baseY)-h-3, formatValue(v))
		}
		fmt.Fprintf(&b, `  <text x="%d" y="%d" text-anchor="middle">%s</text>`+"\n",
			gx+len(metricNames)*barWidth/2, baseY+18, html.EscapeString(e.Name))
	}

	lx := width - 120
	for j, name := range metricNames {
		y := barTop + j*20
		fmt.Fprintf(&b, `  <rect x="%d" y="%d" width="12" height="12" fill="%s"/>`+"\n", lx, y, palette[j])
		fmt.Fprintf(&b, `  <text x="%d" y="%d">%s</text>`+"\n", lx+18, y+11, name)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
