// Package metrics holds the bot's prometheus collectors and the HTTP listener
// that exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var EventsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_events_evaluated_total",
	Help: "Number of platform events run through the rule evaluator",
}, []string{"kind"})

var RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_rules_matched_total",
	Help: "Number of events that matched a rule",
}, []string{"kind"})

var ActionsTaken = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_actions_total",
	Help: "Number of moderation actions requested from the platform",
}, []string{"action", "status"})

var Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_submissions_total",
	Help: "Number of rule submissions by outcome",
}, []string{"outcome"})

var SubmissionItems = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_submission_items_total",
	Help: "Number of submitted rule items by result",
}, []string{"kind", "result"})

var PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automod_poll_errors_total",
	Help: "Number of failed feed fetches",
}, []string{"feed"})

var HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "automod_handler_duration_seconds",
	Help:    "Time spent handling one platform event",
	Buckets: prometheus.DefBuckets,
}, []string{"kind"})
