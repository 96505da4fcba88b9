// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ivklv/birthday-bot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
	remindersSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder deliveries labeled by status",
		},
		[]string{"status"},
	)
	reminderPassDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_pass_duration_seconds",
			Help:    "Duration of hourly reminder passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	reminderPassMatchedRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reminder_pass_matched_records",
			Help:    "Number of active records matched per hourly reminder pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	activeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_conversations",
			Help: "Current number of chats with stored conversation state",
		},
	)
	chatsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chats_by_state",
			Help: "Number of chats per conversation state",
		},
		[]string{"state"},
	)
)

var trackedStates = []state.State{
	state.StateIdle,
	state.StateAwaitingBirthdate,
	state.StateAwaitingHour,
	state.StateAwaitingBirthdateUpdate,
	state.StateAwaitingHourUpdate,
	state.StateError,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// RecordReminderSent tracks an individual reminder delivery outcome.
func RecordReminderSent(status string) {
	if status == "" {
		status = "unknown"
	}

	remindersSentTotal.WithLabelValues(status).Inc()
}

// ObserveReminderPass records the wall time of a full hourly pass.
func ObserveReminderPass(duration time.Duration) {
	reminderPassDurationSeconds.Observe(duration.Seconds())
}

// ObserveReminderMatched records how many records a pass matched.
func ObserveReminderMatched(count int) {
	reminderPassMatchedRecords.Observe(float64(count))
}

// SetActiveConversations updates the gauge for stored conversation states.
func SetActiveConversations(count int) {
	activeConversations.Set(float64(count))
}

// SetChatsByState updates the gauge for the given state.
func SetChatsByState(stateLabel string, count int) {
	if stateLabel == "" {
		stateLabel = "unknown"
	}

	chatsByState.WithLabelValues(stateLabel).Set(float64(count))
}

// StateCollector periodically gathers FSM state counts and emits gauge metrics.
type StateCollector struct {
	fsm state.Machine
}

// NewStateCollector builds a metrics collector bound to the provided FSM.
func NewStateCollector(fsm state.Machine) *StateCollector {
	return &StateCollector{fsm: fsm}
}

// Run polls the FSM every 10 seconds, updating conversation gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.fsm == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	states, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return err
	}

	SetActiveConversations(len(states))

	stateCounts := make(map[string]int, len(states))
	for _, st := range states {
		label := "unknown"
		if st != nil && st.CurrentState != "" {
			label = string(st.CurrentState)
		}
		stateCounts[label]++
	}

	chatsByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetChatsByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetChatsByState(label, count)
	}

	return nil
}
