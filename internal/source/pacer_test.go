package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_FirstCallDoesNotWait(t *testing.T) {
	p := NewPacer(Pacing{ItemDelay: time.Hour, BatchDelay: time.Hour})

	start := time.Now()
	require.NoError(t, p.WaitItem(context.Background()))
	require.NoError(t, p.WaitBatch(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_SpacesItems(t *testing.T) {
	p := NewPacer(Pacing{ItemDelay: 40 * time.Millisecond})

	start := time.Now()
	for range 3 {
		require.NoError(t, p.WaitItem(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)
}

func TestPacer_ZeroDelayIsUnlimited(t *testing.T) {
	p := NewPacer(Pacing{})

	start := time.Now()
	for range 100 {
		require.NoError(t, p.WaitItem(context.Background()))
		require.NoError(t, p.WaitBatch(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPacer_CanceledContext(t *testing.T) {
	p := NewPacer(Pacing{BatchDelay: time.Hour})
	require.NoError(t, p.WaitBatch(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.WaitBatch(ctx))
}

func TestPacingDefaults(t *testing.T) {
	d := DefaultPacing()
	assert.Equal(t, 200*time.Millisecond, d.ItemDelay)
	assert.Equal(t, time.Second, d.BatchDelay)

	p := NewPacingMs(50, -1)
	assert.Equal(t, 50*time.Millisecond, p.ItemDelay)
	assert.Zero(t, p.BatchDelay)
}

func TestPacing_AtLeast(t *testing.T) {
	floor := DefaultPacing()

	assert.Equal(t, floor, NewPacingMs(0, 0).AtLeast(floor))
	assert.Equal(t, floor, NewPacingMs(10, 50).AtLeast(floor))

	slow := NewPacingMs(500, 2000).AtLeast(floor)
	assert.Equal(t, 500*time.Millisecond, slow.ItemDelay)
	assert.Equal(t, 2*time.Second, slow.BatchDelay)
}
