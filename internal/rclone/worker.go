// Package rclone runs `rclone copyurl` jobs and records their progress.
package rclone

import (
	"context"
	"log/slog"

	"github.com/mahirjain10/copyurl-service/internal/queue"
	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/mahirjain10/copyurl-service/internal/utils"
)

// Job is one copyurl invocation.
type Job struct {
	ID          string
	SourceURL   string
	Destination string
	ConfigPath  string
}

// StatusWriter stores the latest status line of a job and learns when the
// job has ended.
type StatusWriter interface {
	Set(id, status string)
	Finish(id string)
}

// Worker runs rclone for accepted jobs. Every output line replaces the job's
// status; nothing is written once the process has exited, so the last line
// printed is the final status whether the transfer worked or not.
type Worker struct {
	binary       string
	statuses     StatusWriter
	publisher    queue.StatusPublisher
	runner       commandRunner
	removeConfig func(path string) error
	logger       *slog.Logger
}

func NewWorker(binary string, statuses StatusWriter, publisher queue.StatusPublisher, logger *slog.Logger) *Worker {
	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		binary:       binary,
		statuses:     statuses,
		publisher:    publisher,
		runner:       &execRunner{},
		removeConfig: utils.RemoveJobConfig,
		logger:       logger,
	}
}

// BuildArgs returns the rclone command line for job.
func BuildArgs(job Job) []string {
	return []string{
		"copyurl", job.SourceURL, job.Destination,
		"--config", job.ConfigPath,
		"--progress",
	}
}

// Start runs job on its own goroutine and returns immediately. The goroutine
// is detached: there is no handle to wait on or cancel it.
func (w *Worker) Start(job Job) {
	go w.Run(context.Background(), job)
}

// Run executes job and blocks until rclone has exited.
func (w *Worker) Run(ctx context.Context, job Job) {
	log := w.logger.With("job_id", job.ID)
	defer func() {
		if err := w.removeConfig(job.ConfigPath); err != nil {
			log.Warn("job config cleanup failed", "error", err)
		}
	}()

	log.Info("transfer started", "destination", job.Destination)

	lines := 0
	result, err := w.runner.Stream(ctx, func(line string) {
		lines++
		w.statuses.Set(job.ID, line)
		w.publish(ctx, log, utils.InitStatusData(job.ID, types.PROCESSING, line, 0, ""))
	}, w.binary, BuildArgs(job)...)
	w.statuses.Finish(job.ID)

	if result.Stderr != "" {
		log.Debug("transfer stderr", "stderr", result.Stderr)
	}
	if err != nil {
		log.Warn("transfer failed", "exit_code", result.ExitCode, "lines", lines, "error", err)
		w.publish(ctx, log, utils.InitStatusData(job.ID, types.FAILED, "", result.ExitCode, err.Error()))
		return
	}

	log.Info("transfer finished", "lines", lines)
	w.publish(ctx, log, utils.InitStatusData(job.ID, types.PROCESSED, "", 0, ""))
}

func (w *Worker) publish(ctx context.Context, log *slog.Logger, data *types.StatusData) {
	if err := w.publisher.Publish(ctx, utils.InitStatusMessage(data)); err != nil {
		log.Warn("status publish failed", "status", data.Status, "error", err)
	}
}
