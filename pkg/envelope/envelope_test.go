package envelope_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentmesh/pkg/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultHandleSettlesOnce(t *testing.T) {
	r := envelope.NewResultHandle()
	r.Settle("first", nil)
	r.Settle("second", nil) // must be ignored

	v, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.True(t, r.Settled())
}

func TestResultHandleSettlesWithError(t *testing.T) {
	r := envelope.NewResultHandle()
	wantErr := errors.New("boom")
	r.Settle(nil, wantErr)

	_, err := r.Wait(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestResultHandleWaitRespectsContext(t *testing.T) {
	r := envelope.NewResultHandle()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
