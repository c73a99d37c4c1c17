// Package sampler measures wall time, CPU and memory of an operation by
// polling a Probe from a background goroutine while the operation runs.
package sampler

import (
	"context"
	"time"
)

// DefaultInterval is the polling cadence used when none is given.
const DefaultInterval = 100 * time.Millisecond

// Measurement is the outcome of a sampled operation.
type Measurement[T any] struct {
	Result          T
	Elapsed         time.Duration
	PeakMemoryBytes uint64
	AvgMemoryBytes  float64
	AvgCPUPercent   float64
	Samples         int
}

// Measure runs op synchronously and polls probe every interval until op
// returns or panics. The sampling goroutine is joined before its samples
// are read, so the sample slices need no locking.
//
// The error returned is op's own error; the measurement is filled in
// either way.
func Measure[T any](
	ctx context.Context,
	probe Probe,
	interval time.Duration,
	op func(context.Context) (T, error),
) (Measurement[T], error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	// Probe readings must outlive a cancelled operation.
	probeCtx := context.WithoutCancel(ctx)

	// Prime the CPU counter so the first tick reports a delta.
	_, _ = probe.CPUPercent(probeCtx)

	var (
		cpuSamples []float64
		memSamples []uint64
	)

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			if pct, err := probe.CPUPercent(probeCtx); err == nil {
				cpuSamples = append(cpuSamples, pct)
			}
			if rss, err := probe.MemoryBytes(probeCtx); err == nil {
				memSamples = append(memSamples, rss)
			}
		}
	}()

	var (
		result  T
		err     error
		elapsed time.Duration
	)

	func() {
		defer func() {
			close(stop)
			<-done
		}()

		start := time.Now()
		result, err = op(ctx)
		elapsed = time.Since(start)
	}()

	m := Measurement[T]{
		Result:  result,
		Elapsed: elapsed,
		Samples: max(len(cpuSamples), len(memSamples)),
	}

	m.AvgCPUPercent = mean(cpuSamples)
	m.PeakMemoryBytes, m.AvgMemoryBytes = memoryStats(memSamples)

	return m, err
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}

	return sum / float64(len(samples))
}

func memoryStats(samples []uint64) (uint64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	var (
		peak uint64
		sum  float64
	)

	for _, s := range samples {
		peak = max(peak, s)
		sum += float64(s)
	}

	return peak, sum / float64(len(samples))
}
