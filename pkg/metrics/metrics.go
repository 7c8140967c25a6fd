// Package metrics defines the engine's Prometheus collectors. They are
// registered on the metrics server's registry by internal/server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "journey_engine"

var (
	ActivitiesLoggedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_logged_total",
			Help:      "Total number of activities logged, by activity type",
		},
		[]string{"type"},
	)

	JourneyDaysCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journey_days_completed_total",
			Help:      "Total number of journey days marked complete",
		},
	)

	RemindersScheduledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_scheduled_total",
			Help:      "Total number of reminders scheduled, by reminder type",
		},
		[]string{"type"},
	)

	RemindersDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_delivered_total",
			Help:      "Total number of reminders claimed and handed to the notifier, by reminder type",
		},
		[]string{"type"},
	)

	ReminderCheckDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_check_duration_seconds",
			Help:      "Duration of one due-reminder scan",
			Buckets:   prometheus.DefBuckets,
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery attempts, by channel and result",
		},
		[]string{"channel", "result"},
	)

	RuleTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_triggers_total",
			Help:      "Total number of rule triggers",
		},
		[]string{"rule_id", "rule_type"},
	)

	ActionExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_executions_total",
			Help:      "Total number of action executions, by action and result",
		},
		[]string{"action_id", "result"},
	)
)

// Collectors returns every engine collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ActivitiesLoggedTotal,
		JourneyDaysCompletedTotal,
		RemindersScheduledTotal,
		RemindersDeliveredTotal,
		ReminderCheckDuration,
		NotificationsTotal,
		RuleTriggersTotal,
		ActionExecutionsTotal,
	}
}
