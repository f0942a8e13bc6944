package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jes-wd/freya-sync/pkg/logger"
)

const (
	defaultPoll  = time.Second
	defaultBatch = 20
)

// Source drains due payloads from a delayed queue.
type Source interface {
	DequeueDue(ctx context.Context, queue string, now time.Time, limit int64) ([]string, error)
}

// Handler processes claimed partial-entry tasks.
type Handler interface {
	ProcessPartialEntry(ctx context.Context, task PartialEntryTask) error
}

// WorkerParams configure the partial-entry worker.
type WorkerParams struct {
	Logger  *logger.Logger
	Source  Source
	Handler Handler
	Poll    time.Duration
	Batch   int
}

// Worker polls the partial-entry queue and hands due tasks to the handler.
// A payload that fails to decode or process is logged and dropped; the
// scheduling side dedupes, so replaying a broken payload would not help.
type Worker struct {
	logg    *logger.Logger
	source  Source
	handler Handler
	poll    time.Duration
	batch   int
	now     func() time.Time
}

// NewWorker builds a partial-entry worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("source required")
	}
	if params.Handler == nil {
		return nil, fmt.Errorf("handler required")
	}
	poll := params.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultBatch
	}
	return &Worker{
		logg:    params.Logger,
		source:  params.Source,
		handler: params.Handler,
		poll:    poll,
		batch:   batch,
		now:     time.Now,
	}, nil
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logg.Info(ctx, "partial-entry worker context canceled")
			return ctx.Err()
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain claims and processes every currently due task, up to the batch size.
func (w *Worker) Drain(ctx context.Context) {
	payloads, err := w.source.DequeueDue(ctx, PartialEntryQueue, w.now(), int64(w.batch))
	if err != nil {
		w.logg.Error(ctx, "failed to drain partial-entry queue", err)
		return
	}
	for _, payload := range payloads {
		task, err := DecodePartialEntryTask(payload)
		if err != nil {
			w.logg.Error(ctx, "dropping undecodable partial-entry payload", err)
			continue
		}
		taskCtx := w.logg.WithEmail(ctx, task.Email)
		if err := w.processTask(taskCtx, task); err != nil {
			w.logg.Error(taskCtx, "partial-entry task failed", err)
		}
	}
}

// processTask confines a handler panic to the task that caused it so the
// rest of the drained batch still runs.
func (w *Worker) processTask(ctx context.Context, task PartialEntryTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handler.ProcessPartialEntry(ctx, task)
}
