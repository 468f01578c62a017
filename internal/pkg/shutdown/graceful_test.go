package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestWithSignals_CancelledBySignal(t *testing.T) {
	ctx, cancel := WithSignals(context.Background())
	defer cancel()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestWithSignals_CancelReleasesWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, cancel := WithSignals(context.Background())
	cancel()
}
