package sampler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	cpu      float64
	mem      atomic.Uint64
	step     uint64
	cpuCalls atomic.Int64
	failMem  bool
}

func (p *fakeProbe) CPUPercent(context.Context) (float64, error) {
	p.cpuCalls.Add(1)
	return p.cpu, nil
}

func (p *fakeProbe) MemoryBytes(context.Context) (uint64, error) {
	if p.failMem {
		return 0, errors.New("unavailable")
	}

	return p.mem.Add(p.step), nil
}

func TestMeasureFastOperationHasZeroAverages(t *testing.T) {
	probe := &fakeProbe{cpu: 50, step: 1024}

	m, err := Measure(context.Background(), probe, time.Second,
		func(context.Context) (int64, error) {
			return 42, nil
		})
	require.NoError(t, err)

	require.Equal(t, int64(42), m.Result)
	require.Zero(t, m.Samples)
	require.Zero(t, m.AvgCPUPercent)
	require.Zero(t, m.AvgMemoryBytes)
	require.Zero(t, m.PeakMemoryBytes)
	require.Equal(t, int64(1), probe.cpuCalls.Load(), "only the priming call")
}

func TestMeasureCollectsSamples(t *testing.T) {
	probe := &fakeProbe{cpu: 25, step: 100}

	m, err := Measure(context.Background(), probe, 10*time.Millisecond,
		func(context.Context) (string, error) {
			time.Sleep(120 * time.Millisecond)
			return "done", nil
		})
	require.NoError(t, err)

	require.Equal(t, "done", m.Result)
	require.Positive(t, m.Samples)
	require.GreaterOrEqual(t, m.Elapsed, 120*time.Millisecond)
	require.InDelta(t, 25.0, m.AvgCPUPercent, 1e-9)

	// Memory grows by step on every sample: peak is the last sample and
	// the mean is the midpoint of the arithmetic series.
	n := uint64(m.Samples)
	require.Equal(t, n*probe.step, m.PeakMemoryBytes)
	require.InDelta(t, float64(probe.step)*float64(n+1)/2, m.AvgMemoryBytes, 1e-6)
}

func TestMeasureSkipsFailedReadings(t *testing.T) {
	probe := &fakeProbe{cpu: 10, failMem: true}

	m, err := Measure(context.Background(), probe, 5*time.Millisecond,
		func(context.Context) (int, error) {
			time.Sleep(40 * time.Millisecond)
			return 1, nil
		})
	require.NoError(t, err)

	require.Positive(t, m.Samples)
	require.InDelta(t, 10.0, m.AvgCPUPercent, 1e-9)
	require.Zero(t, m.PeakMemoryBytes)
	require.Zero(t, m.AvgMemoryBytes)
}

func TestMeasureReturnsOperationError(t *testing.T) {
	probe := &fakeProbe{step: 1}
	wantErr := errors.New("boom")

	m, err := Measure(context.Background(), probe, time.Second,
		func(context.Context) (int64, error) {
			return 7, wantErr
		})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, int64(7), m.Result)
}

func TestMeasureStopsSamplingWhenOperationPanics(t *testing.T) {
	probe := &fakeProbe{step: 1}

	require.PanicsWithValue(t, "codec blew up", func() {
		_, _ = Measure(context.Background(), probe, time.Millisecond,
			func(context.Context) (int, error) {
				time.Sleep(20 * time.Millisecond)
				panic("codec blew up")
			})
	})

	calls := probe.cpuCalls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, calls, probe.cpuCalls.Load(), "sampling continued after the panic")
}

func TestMeasurePassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Measure(ctx, &fakeProbe{}, 0,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, ctx.Err()
		})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessProbe(t *testing.T) {
	ctx := context.Background()

	probe, err := NewProcessProbe(ctx)
	require.NoError(t, err)
	require.Positive(t, probe.Cores())

	rss, err := probe.MemoryBytes(ctx)
	require.NoError(t, err)
	require.Positive(t, rss)

	pct, err := probe.CPUPercent(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, pct, 0.0)
}
