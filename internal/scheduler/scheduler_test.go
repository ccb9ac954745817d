package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalJobStartsImmediately(t *testing.T) {
	s := New()
	defer s.Stop()

	rqIDs := make(chan string, 1)
	s.NewIntervalJob("refresh", func(ctx context.Context) error {
		select {
		case rqIDs <- utils.GetRequestIDFromCtx(ctx):
		default:
		}
		return nil
	}, time.Hour, true)
	s.Start()

	select {
	case rqID := <-rqIDs:
		assert.NotEmpty(t, rqID)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestTaskWithRecover(t *testing.T) {
	s := New()
	defer s.Stop()

	task := s.taskWithRecover(func(ctx context.Context) error {
		panic("boom")
	}, "panicking")

	require.NotPanics(t, func() { task(context.Background()) })
}
