// Package loader reads process descriptors from workload files.
//
// Supported formats are selected by extension:
//
//	.json        bare array [{"pid","arrival","burst","priority"}] or
//	             {"processes":[{"id","arrival_time","burst_time","priority"}]}
//	.yaml, .yml  list of processes, or a "processes" key holding one
//	.csv         pid,arrival,burst,priority with an optional header row
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/schedsim/internal/models"
)

// Format names a workload encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for an extension or format name that has no decoder.
var ErrUnknownFormat = errors.New("unknown workload format")

// DefaultFileName is looked up in the project root when no file is given.
const DefaultFileName = "process_data.json"

// Default returns the built-in six-process workload.
func Default() []models.Process {
	return []models.Process{
		{PID: "P1", Arrival: 0, Burst: 8, Priority: 2},
		{PID: "P2", Arrival: 0, Burst: 4, Priority: 1},
		{PID: "P3", Arrival: 0, Burst: 6, Priority: 3},
		{PID: "P4", Arrival: 0, Burst: 6, Priority: 2},
		{PID: "P5", Arrival: 0, Burst: 4, Priority: 4},
		{PID: "P6", Arrival: 0, Burst: 7, Priority: 2},
	}
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Load reads and decodes the workload at path.
func Load(path string) ([]models.Process, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening workload: %w", err)
	}
	defer f.Close()

	procs, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return procs, nil
}

// LoadOrDefault loads path when it is non-empty. With an empty path it tries
// DefaultFileName under root and falls back to Default when that is missing.
// The second return value reports where the workload came from.
func LoadOrDefault(root, path string) ([]models.Process, string, error) {
	if path != "" {
		procs, err := Load(path)
		return procs, path, err
	}
	candidate := filepath.Join(root, DefaultFileName)
	if _, err := os.Stat(candidate); err == nil {
		procs, err := Load(candidate)
		return procs, candidate, err
	}
	return Default(), "built-in", nil
}

// Decode reads a workload in the given format from r.
func Decode(r io.Reader, format Format) ([]models.Process, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}

	var procs []models.Process
	switch format {
	case FormatJSON:
		procs, err = decodeJSON(data)
	case FormatYAML:
		procs, err = decodeYAML(data)
	case FormatCSV:
		procs, err = decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if len(procs) == 0 {
		return nil, fmt.Errorf("%w: workload has no processes", models.ErrInvalidInput)
	}
	return procs, nil
}

// wrappedProcess is the long-form descriptor used by the wrapped JSON layout.
type wrappedProcess struct {
	ID          string `json:"id" yaml:"id"`
	ArrivalTime int    `json:"arrival_time" yaml:"arrival_time"`
	BurstTime   int    `json:"burst_time" yaml:"burst_time"`
	Priority    int    `json:"priority" yaml:"priority"`
}

func (w wrappedProcess) toProcess() models.Process {
	return models.Process{PID: w.ID, Arrival: w.ArrivalTime, Burst: w.BurstTime, Priority: w.Priority}
}

func decodeJSON(data []byte) ([]models.Process, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON document")
	}

	if data[0] == '[' {
		var procs []models.Process
		if err := json.Unmarshal(data, &procs); err != nil {
			return nil, fmt.Errorf("parsing JSON process list: %w", err)
		}
		return procs, nil
	}

	var doc struct {
		Processes []json.RawMessage `json:"processes"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON workload: %w", err)
	}
	procs := make([]models.Process, 0, len(doc.Processes))
	for i, raw := range doc.Processes {
		p, err := decodeJSONEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// decodeJSONEntry accepts both the short (pid/arrival/burst) and long
// (id/arrival_time/burst_time) field names.
func decodeJSONEntry(raw json.RawMessage) (models.Process, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return models.Process{}, err
	}
	if _, long := keys["id"]; long {
		var w wrappedProcess
		if err := json.Unmarshal(raw, &w); err != nil {
			return models.Process{}, err
		}
		return w.toProcess(), nil
	}
	var p models.Process
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Process{}, err
	}
	return p, nil
}

func decodeYAML(data []byte) ([]models.Process, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing YAML workload: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}

	root := node.Content[0]
	if root.Kind == yaml.MappingNode {
		var doc struct {
			Processes yaml.Node `yaml:"processes"`
		}
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing YAML workload: %w", err)
		}
		root = &doc.Processes
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("YAML workload must be a list of processes")
	}

	procs := make([]models.Process, 0, len(root.Content))
	for i, item := range root.Content {
		var fields map[string]any
		if err := item.Decode(&fields); err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
		if _, long := fields["id"]; long {
			var w wrappedProcess
			if err := item.Decode(&w); err != nil {
				return nil, fmt.Errorf("process %d: %w", i, err)
			}
			procs = append(procs, w.toProcess())
			continue
		}
		var p models.Process
		if err := item.Decode(&p); err != nil {
			return nil, fmt.Errorf("process %d: %w", i, err)
		}
		procs = append(procs, p)
	}
	return procs, nil
}

func decodeCSV(data []byte) ([]models.Process, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.Comment = '#'
	// Priority is optional, so rows may have 3 or 4 fields.
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	procs := make([]models.Process, 0, len(rows))
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) < 3 || len(row) > 4 {
			return nil, fmt.Errorf("line %d: want pid,arrival,burst[,priority], got %d fields", i+1, len(row))
		}
		p := models.Process{PID: strings.TrimSpace(row[0])}
		if p.Arrival, err = atoi(row[1]); err != nil {
			return nil, fmt.Errorf("line %d: arrival: %w", i+1, err)
		}
		if p.Burst, err = atoi(row[2]); err != nil {
			return nil, fmt.Errorf("line %d: burst: %w", i+1, err)
		}
		if len(row) == 4 {
			if p.Priority, err = atoi(row[3]); err != nil {
				return nil, fmt.Errorf("line %d: priority: %w", i+1, err)
			}
		}
		procs = append(procs, p)
	}
	return procs, nil
}

func isHeader(row []string) bool {
	if len(row) < 2 {
		return false
	}
	_, err := atoi(row[1])
	return err != nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
