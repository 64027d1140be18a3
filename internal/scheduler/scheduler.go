package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/devconnect/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single job run.
const runTimeout = 30 * time.Minute

// Job is a unit of background work run on a schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a cron spec with the job it triggers.
type Entry struct {
	Spec string
	Job  Job
}

// Start registers the entries on a new cron and starts it. A run that is
// still going when its next tick arrives makes that tick a no-op. The caller
// stops the returned cron on shutdown.
func Start(entries ...Entry) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger.Log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger.Log)),
	))

	for _, e := range entries {
		job := e.Job
		if _, err := c.AddFunc(e.Spec, func() { RunOnce(context.Background(), job) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.Name(), e.Spec, err)
		}
		logger.Log.WithField("job", job.Name()).WithField("spec", e.Spec).Info("job scheduled")
	}

	c.Start()
	return c, nil
}

// RunOnce runs job with a timeout and logs its outcome.
func RunOnce(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	log := logger.Log.WithField("job", job.Name())
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.WithError(err).Error("job failed")
		return err
	}
	log.WithField("duration", time.Since(start).String()).Info("job finished")
	return nil
}
