package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecipesCreated counts recipes created by kind ("curated" or "community").
	RecipesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recetario_recipes_created_total",
		Help: "Total number of recipes created",
	}, []string{"kind"})

	// ModerationDecisions counts moderation actions by kind and resulting status.
	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recetario_moderation_decisions_total",
		Help: "Total number of moderation decisions",
	}, []string{"kind", "status"})

	// LikesToggled counts like/unlike operations on community recipes.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recetario_likes_toggled_total",
		Help: "Total number of like toggles on community recipes",
	}, []string{"action"})

	// BackupRuns counts backup executions by outcome.
	BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recetario_backup_runs_total",
		Help: "Total number of backup runs",
	}, []string{"store", "outcome"})

	// BackupSizeBytes records the size of uploaded backup documents.
	BackupSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recetario_backup_size_bytes",
		Help:    "Size of uploaded backup documents",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	// WebSocketDrops counts live feed messages dropped because a client buffer was full or closed.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recetario_websocket_drops_total",
		Help: "Total number of live feed messages dropped",
	}, []string{"reason"})
)
