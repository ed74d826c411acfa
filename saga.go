package kilnlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// sagaStep is one step of a multi-step cross-store operation. Run performs the
// step; Compensate undoes it. Compensate may be nil for steps that need no
// undo (reads, or steps whose effect is the terminal one).
type sagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// runSaga executes steps in order. On the first failure it runs the
// compensations of every already-completed step in reverse order and returns
// the step's error. Compensation failures are logged, never surfaced: the
// caller always learns about the primary failure.
//
// Compensations run on a fresh background context so they still complete when
// the caller's context is already cancelled.
func runSaga(ctx context.Context, op string, timeout time.Duration, steps []sagaStep) error {
	for i, step := range steps {
		err := step.Run(ctx)
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			if steps[j].Compensate == nil {
				continue
			}

			compCtx, cancel := context.WithTimeout(context.Background(), timeout)
			if compErr := steps[j].Compensate(compCtx); compErr != nil {
				slog.Error("saga compensation failed",
					"op", op, "failed_step", step.Name, "compensated_step", steps[j].Name, "err", compErr)
			}
			cancel()
		}

		return fmt.Errorf("%s: %s: %w", op, step.Name, err)
	}

	return nil
}
