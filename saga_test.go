package kilnlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunSaga(t *testing.T) {
	t.Run("all steps run in order", func(t *testing.T) {
		var order []string

		err := runSaga(context.Background(), "test", time.Second, []sagaStep{
			{Name: "first", Run: func(ctx context.Context) error {
				order = append(order, "first")
				return nil
			}},
			{Name: "second", Run: func(ctx context.Context) error {
				order = append(order, "second")
				return nil
			}},
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("failure compensates completed steps in reverse", func(t *testing.T) {
		var order []string
		boom := errors.New("boom")

		err := runSaga(context.Background(), "test", time.Second, []sagaStep{
			{
				Name: "a",
				Run:  func(ctx context.Context) error { return nil },
				Compensate: func(ctx context.Context) error {
					order = append(order, "undo a")
					return nil
				},
			},
			{
				Name: "b",
				Run:  func(ctx context.Context) error { return nil },
				Compensate: func(ctx context.Context) error {
					order = append(order, "undo b")
					return nil
				},
			},
			{
				Name: "c",
				Run:  func(ctx context.Context) error { return boom },
				Compensate: func(ctx context.Context) error {
					order = append(order, "undo c")
					return nil
				},
			},
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"undo b", "undo a"}, order, "failed step itself is not compensated")
	})

	t.Run("nil compensations are skipped", func(t *testing.T) {
		boom := errors.New("boom")

		err := runSaga(context.Background(), "test", time.Second, []sagaStep{
			{Name: "read", Run: func(ctx context.Context) error { return nil }},
			{Name: "write", Run: func(ctx context.Context) error { return boom }},
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("compensation failure does not mask the step error", func(t *testing.T) {
		boom := errors.New("boom")

		err := runSaga(context.Background(), "test", time.Second, []sagaStep{
			{
				Name:       "a",
				Run:        func(ctx context.Context) error { return nil },
				Compensate: func(ctx context.Context) error { return errors.New("undo failed") },
			},
			{Name: "b", Run: func(ctx context.Context) error { return boom }},
		})
		assert.ErrorIs(t, err, boom)
		assert.NotContains(t, err.Error(), "undo failed")
	})

	t.Run("compensation runs after caller cancellation", func(t *testing.T) {
		compensated := false

		ctx, cancel := context.WithCancel(context.Background())

		err := runSaga(ctx, "test", time.Second, []sagaStep{
			{
				Name: "a",
				Run:  func(ctx context.Context) error { return nil },
				Compensate: func(ctx context.Context) error {
					compensated = ctx.Err() == nil
					return nil
				},
			},
			{
				Name: "b",
				Run: func(ctx context.Context) error {
					cancel()
					return ctx.Err()
				},
			},
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, compensated, "compensation context must outlive the caller's")
	})

	t.Run("error names the failed step", func(t *testing.T) {
		err := runSaga(context.Background(), "upload", time.Second, []sagaStep{
			{Name: "store blob", Run: func(ctx context.Context) error { return errors.New("disk full") }},
		})
		assert.ErrorContains(t, err, "upload: store blob")
	})
}
