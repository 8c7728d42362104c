package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// persist hands research to the sink without waiting for it.
func (o *Orchestrator) persist(research model.ResearchResult, log *zap.Logger) {
	if o.sink == nil {
		return
	}
	research = research.Clone()
	o.detach("persist_research", log, func(ctx context.Context) error {
		return o.sink.Persist(ctx, research)
	})
}

// record saves the run without waiting for it.
func (o *Orchestrator) record(state model.PipelineState, log *zap.Logger) {
	if o.runs == nil {
		return
	}
	o.detach("save_run", log, func(ctx context.Context) error {
		return o.runs.SaveRun(ctx, state)
	})
}

// detach runs fn on its own goroutine with its own deadline. Errors and
// panics are logged and never reach the run that started it.
func (o *Orchestrator) detach(task string, log *zap.Logger, fn func(ctx context.Context) error) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("pipeline: background task panicked", zap.String("task", task), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), o.persistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warn("pipeline: background task failed", zap.String("task", task), zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight run and background task has finished
// or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "pipeline: wait for background tasks")
	}
}
