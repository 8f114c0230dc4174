package daemon

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	"git.home.luguber.info/inful/hardtrack/internal/stats"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

const metricsNamespace = "hardtrack"

// Metrics owns a private registry so tests and embedders never collide with
// the global one. Progress gauges read the live state at scrape time.
type Metrics struct {
	registry    *prom.Registry
	slotChanges *prom.CounterVec
}

func newMetrics(state *challenge.State, wlog *workout.Log) *Metrics {
	registry := prom.NewRegistry()

	slotChanges := prom.NewCounterVec(prom.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "slot_changes_total",
		Help:      "Slot change notifications observed, by key and origin.",
	}, []string{"key", "source"})

	currentDay := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "current_day",
		Help:      "Challenge day the tracker is on.",
	}, func() float64 { return float64(state.CurrentDay()) })

	completedDays := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "completed_days",
		Help:      "Days recorded as completed.",
	}, func() float64 { return float64(len(state.CompletedDays())) })

	progress := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "progress_percent",
		Help:      "Completed days as a percentage of the program.",
	}, func() float64 { return float64(state.ProgressPercentage()) })

	tasksDone := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "tasks_completed_percent",
		Help:      "Checked tasks on today's checklist, as a percentage.",
	}, func() float64 { return float64(state.TasksCompletedPercentage()) })

	workoutEntries := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "workout_entries",
		Help:      "Exercise entries in the workout log.",
	}, func() float64 {
		_, entries := stats.WorkoutTotals(wlog.All())
		return float64(entries)
	})

	registry.MustRegister(
		slotChanges,
		currentDay,
		completedDays,
		progress,
		tasksDone,
		workoutEntries,
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)

	return &Metrics{registry: registry, slotChanges: slotChanges}
}

// SlotChanged counts one change notification for key.
func (m *Metrics) SlotChanged(key string, external bool) {
	source := "local"
	if external {
		source = "external"
	}
	m.slotChanges.WithLabelValues(key, source).Inc()
}

// Handler serves the registry in OpenMetrics-capable form.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
