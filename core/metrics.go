package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_tracking_batches_created_total",
		Help: "Batches created.",
	})

	BatchesSealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_tracking_batches_sealed_total",
		Help: "Batches sealed.",
	})

	CheckpointsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_tracking_checkpoints_recorded_total",
		Help: "Checkpoints recorded, by owner kind.",
	}, []string{"owner"})

	DeliveriesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "export_tracking_deliveries_detected_total",
		Help: "Products marked delivered by the proximity check.",
	})

	ExternalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_tracking_external_failures_total",
		Help: "Failed calls to geocoding and routing services.",
	}, []string{"service"})

	WorkerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_tracking_worker_runs_total",
		Help: "Scheduled worker executions.",
	}, []string{"worker"})
)
