package pipeline

import (
	"context"
	"time"

	"github.com/fwojciec/blueprint"
)

// Invoke calls fn with a and measures the call with the monotonic clock. The
// output is normalized with blueprint.NewStageResult. Errors are returned
// unchanged; Invoke never retries.
func Invoke(ctx context.Context, fn blueprint.StageFunc, a blueprint.Artifacts) (blueprint.StageResult, time.Duration, error) {
	start := time.Now()
	out, err := fn(ctx, a)
	d := time.Since(start)
	if err != nil {
		return blueprint.StageResult{}, d, err
	}
	return blueprint.NewStageResult(out), d, nil
}
