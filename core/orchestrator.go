package core

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Orchestrator struct {
	workers []Worker
	logger  *zap.Logger
	running sync.WaitGroup
}

func NewOrchestrator(logger *zap.Logger, workers []Worker) *Orchestrator {
	return &Orchestrator{workers: workers, logger: logger}
}

func (o *Orchestrator) Start() (*cron.Cron, error) {
	c := cron.New()

	for _, worker := range o.workers {
		_, err := c.AddFunc(worker.Schedule(), func() {
			o.tick(worker, time.Now())
		})

		if err != nil {
			o.logger.Error("Error adding cron job",
				zap.String("worker", worker.Name()),
				zap.String("schedule", worker.Schedule()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	c.Start()
	return c, nil
}

func (o *Orchestrator) tick(worker Worker, now time.Time) bool {
	if !worker.Ready(now) {
		o.logger.Debug("Worker busy, skipping run", zap.String("worker", worker.Name()))
		return false
	}
	WorkerRuns.WithLabelValues(worker.Name()).Inc()
	o.running.Add(1)
	go func() {
		defer o.running.Done()
		worker.Execute()
	}()
	return true
}

// Wait blocks until every worker execution started so far has returned.
func (o *Orchestrator) Wait() {
	o.running.Wait()
}
