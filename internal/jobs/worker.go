package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor runs one batch of pending work. Implementations claim their
// own work, so concurrent calls must not double-process.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed poll interval until the context is
// cancelled or Stop is called.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start polls until the context is cancelled or Stop is called. An immediate
// first pass picks up sources that queued before the worker came up.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("ingest worker polling every %v", w.pollInterval)

	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("ingest poll failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("ingest worker exiting: context cancelled")
			return
		case <-w.stopChan:
			log.Println("ingest worker exiting: stop requested")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("ingest poll failed: %v", err)
			}
		}
	}
}

// Stop signals the polling loop to exit and blocks until it has drained.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("ingest worker stopped")
}
