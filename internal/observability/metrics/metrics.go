package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters and histograms exposed on /metrics. Registered on the default
// registry so promhttp.Handler serves them without extra wiring.
var (
	// WebhookRequests counts chatbot webhook calls by endpoint and outcome.
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_requests_total",
		Help: "Chatbot webhook requests by endpoint and status class.",
	}, []string{"endpoint", "status"})

	// BookingConflicts counts booking admissions rejected by the conflict check.
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking requests rejected because the slot was taken.",
	})

	// ConversationsLogged counts conversations persisted via the webhook surface.
	ConversationsLogged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conversations_logged_total",
		Help: "Conversations logged by the chatbot platform.",
	})

	// LeadScores observes the score distribution of captured leads.
	LeadScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lead_score",
		Help:    "Distribution of computed lead scores.",
		Buckets: prometheus.LinearBuckets(30, 10, 8),
	})
)
