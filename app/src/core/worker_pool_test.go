package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpi-analytics-service/app/src/domain"
)

type countingWriter struct {
	mu     sync.Mutex
	stored []domain.Measurement
}

func (w *countingWriter) Add(ctx context.Context, m domain.Measurement) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stored = append(w.stored, m)
	return nil
}

func (w *countingWriter) AddBatch(ctx context.Context, ms []domain.Measurement) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stored = append(w.stored, ms...)
	return nil
}

func (w *countingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stored)
}

func TestWorkerPoolDrainsChannel(t *testing.T) {
	t.Parallel()

	writer := &countingWriter{}
	pool := NewWorkerPool(3, writer, nil)

	measurements := make(chan domain.Measurement, 10)
	for i := 0; i < 10; i++ {
		measurements <- validMeasurement()
	}
	close(measurements)

	pool.Run(context.Background(), measurements)
	assert.Equal(t, 10, writer.count())
}

func TestWorkerPoolStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	writer := &countingWriter{}
	pool := NewWorkerPool(2, writer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	measurements := make(chan domain.Measurement)

	done := make(chan struct{})
	go func() {
		pool.Run(ctx, measurements)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

func TestFeedEmitsPerCellAndProfile(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 9}, nil)
	feed := NewFeed(FeedConfig{
		Interval: 5 * time.Millisecond,
		CellIDs:  []string{"a", "b"},
		Profiles: []domain.TrafficProfile{domain.ProfileEMBB},
	}, gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan domain.Measurement, 16)
	go feed.Run(ctx, out)

	var received []domain.Measurement
	timeout := time.After(2 * time.Second)
	for len(received) < 4 {
		select {
		case m, ok := <-out:
			require.True(t, ok, "channel closed before enough measurements arrived")
			received = append(received, m)
		case <-timeout:
			t.Fatal("timeout waiting for feed output")
		}
	}
	cancel()

	cells := map[string]bool{}
	for _, m := range received {
		cells[m.CellID] = true
		assert.Equal(t, domain.ProfileEMBB, m.TrafficProfile)
	}
	assert.True(t, cells["a"])
	assert.True(t, cells["b"])
}

func TestFeedClosesChannelOnCancel(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(GeneratorConfig{Seed: 9}, nil)
	feed := NewFeed(FeedConfig{Interval: time.Hour}, gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan domain.Measurement)

	go feed.Run(ctx, out)
	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok, "channel should be closed, not carrying data")
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not close its channel")
	}
}
