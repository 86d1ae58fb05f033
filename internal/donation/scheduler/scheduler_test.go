package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindra/internal/donation/scheduler"
	dErrors "kindra/pkg/domain-errors"
)

type countingReconciler struct {
	runs atomic.Int32
}

func (r *countingReconciler) RecomputeAll(context.Context) (int, error) {
	r.runs.Add(1)
	return 0, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	_, err := scheduler.New(&countingReconciler{}, 0, discardLogger())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestStartAndShutdown(t *testing.T) {
	r := &countingReconciler{}
	s, err := scheduler.New(r, time.Hour, discardLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start())
	require.NoError(t, s.Shutdown())
}

func TestPeriodicSweepRuns(t *testing.T) {
	r := &countingReconciler{}
	s, err := scheduler.New(r, 20*time.Millisecond, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Shutdown()

	assert.Eventually(t, func() bool {
		return r.runs.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}
