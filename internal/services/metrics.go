// Package services – pipeline metrics
//
// Prometheus collectors for the chat pipeline. Labels are limited to the
// intent label and fixed operation/outcome names so cardinality stays
// bounded even when the model invents intents.
package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

// LLM operation labels.
const (
	opIntent = "intent"
	opReply  = "reply"
)

var (
	// chatTurns counts completed turns by intent.
	chatTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of completed chat turns by intent.",
		},
		[]string{"intent"},
	)

	// chatTurnDur records the elapsed time of steps 2-6 of a turn.
	chatTurnDur = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Duration of chat turns from conversation lookup to generated reply.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
	)

	// llmRequests counts remote completion calls by operation and outcome.
	llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM completion requests by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// llmFallbacks counts canned answers served in place of a model output.
	llmFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Total number of fallback results substituted for LLM output.",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(chatTurns, chatTurnDur, llmRequests, llmFallbacks)
}

// intentLabel folds labels outside the fixed vocabulary into "other".
func intentLabel(intent string) string {
	for _, k := range domain.KnownIntents {
		if k == intent {
			return intent
		}
	}
	return "other"
}
