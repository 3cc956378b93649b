package engine

import (
	"context"
	"errors"
)

// EvaluationJob adapts the engine to the scheduler's Job interface.
type EvaluationJob struct {
	ctx    context.Context
	engine *Engine
}

func (e *Engine) Job(ctx context.Context) *EvaluationJob {
	return &EvaluationJob{ctx: ctx, engine: e}
}

func (j *EvaluationJob) Name() string {
	return "evaluate_allocation"
}

// Run fails only when the cycle could not do its job: the source was down or
// the executor errored. A rejected or held rebalance is a normal outcome.
func (j *EvaluationJob) Run() error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	decision := j.engine.Evaluate(j.ctx)
	switch decision.Result {
	case ResultSourceError:
		return errors.New("series source: " + decision.SourceError)
	case ResultReconcileFailed, ResultOrderFailed:
		return errors.New(decision.Result + ": " + decision.RejectReason)
	}
	return nil
}
