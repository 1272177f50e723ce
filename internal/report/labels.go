package report

import (
	"fmt"
	"strings"
)

// Labels holds every user-facing string the text renderer prints.
// Localisation lives here and nowhere else; schedulers never see it.
type Labels struct {
	Timeline        string
	Completions     string
	QuantumLog      string
	DecisionLog     string
	Metrics         string
	Comparison      string
	Best            string
	Process         string
	Arrival         string
	Burst           string
	Priority        string
	Start           string
	End             string
	Completion      string
	Turnaround      string
	Waiting         string
	Response        string
	Time            string
	Quantum         string
	Cycle           string
	Ranked          string
	Algorithm       string
	Average         string
	Makespan        string
	Utilization     string
	Throughput      string
	ContextSwitches string
	BestTurnaround  string
	BestWaiting     string
	BestResponse    string
	MostBalanced    string
	Idle            string
}

// English labels.
var English = Labels{
	Timeline:        "Execution Timeline",
	Completions:     "Process Completion Table",
	QuantumLog:      "Dynamic Time Quantum Log",
	DecisionLog:     "Scheduling Decision Log",
	Metrics:         "Average Metrics",
	Comparison:      "Algorithm Comparison",
	Best:            "Best Results",
	Process:         "Process",
	Arrival:         "Arrival",
	Burst:           "Burst",
	Priority:        "Priority",
	Start:           "Start",
	End:             "End",
	Completion:      "Completion",
	Turnaround:      "TAT",
	Waiting:         "WT",
	Response:        "RT",
	Time:            "Time",
	Quantum:         "DTQ",
	Cycle:           "Cycle",
	Ranked:          "Ranked",
	Algorithm:       "Algorithm",
	Average:         "Average",
	Makespan:        "Makespan",
	Utilization:     "CPU utilization",
	Throughput:      "Throughput",
	ContextSwitches: "Context switches",
	BestTurnaround:  "Best TAT",
	BestWaiting:     "Best WT",
	BestResponse:    "Best RT",
	MostBalanced:    "Most balanced",
	Idle:            "idle",
}

// Spanish labels.
var Spanish = Labels{
	Timeline:        "Línea de Tiempo de Ejecución",
	Completions:     "Tabla de Finalización de Procesos",
	QuantumLog:      "Registro de Quantum Dinámico",
	DecisionLog:     "Registro de Decisiones del Planificador",
	Metrics:         "Métricas Promedio",
	Comparison:      "Comparación de Algoritmos",
	Best:            "Mejores Resultados",
	Process:         "Proceso",
	Arrival:         "Llegada",
	Burst:           "Ráfaga",
	Priority:        "Prioridad",
	Start:           "Inicio",
	End:             "Fin",
	Completion:      "Finaliz.",
	Turnaround:      "TAT",
	Waiting:         "TE",
	Response:        "TR",
	Time:            "Tiempo",
	Quantum:         "Quantum",
	Cycle:           "Ciclo",
	Ranked:          "Orden",
	Algorithm:       "Algoritmo",
	Average:         "Promedio",
	Makespan:        "Tiempo total",
	Utilization:     "Uso de CPU",
	Throughput:      "Rendimiento",
	ContextSwitches: "Cambios de contexto",
	BestTurnaround:  "Mejor TAT",
	BestWaiting:     "Mejor TE",
	BestResponse:    "Mejor TR",
	MostBalanced:    "Más balanceado",
	Idle:            "inactivo",
}

// LabelsFor returns the label set for a language code ("en" or "es").
func LabelsFor(lang string) (Labels, error) {
	switch strings.ToLower(lang) {
	case "", "en":
		return English, nil
	case "es":
		return Spanish, nil
	default:
		return Labels{}, fmt.Errorf("unsupported language %q (valid: en, es)", lang)
	}
}
