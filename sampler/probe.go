package sampler

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

// Probe reports resource usage of the whole process.
type Probe interface {
	// CPUPercent returns CPU utilisation since the previous call,
	// normalised by the number of logical cores (0..100).
	CPUPercent(ctx context.Context) (float64, error)
	// MemoryBytes returns the current resident set size.
	MemoryBytes(ctx context.Context) (uint64, error)
}

// ProcessProbe samples the running process through gopsutil.
type ProcessProbe struct {
	proc  *process.Process
	cores int
}

var _ Probe = (*ProcessProbe)(nil)

// NewProcessProbe creates a Probe for the current process.
func NewProcessProbe(ctx context.Context) (*ProcessProbe, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process %d: %w", os.Getpid(), err)
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}

	return &ProcessProbe{proc: proc, cores: cores}, nil
}

// CPUPercent implements Probe.
func (p *ProcessProbe) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := p.proc.PercentWithContext(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}

	return pct / float64(p.cores), nil
}

// MemoryBytes implements Probe.
func (p *ProcessProbe) MemoryBytes(ctx context.Context) (uint64, error) {
	info, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("memory info: %w", err)
	}

	return info.RSS, nil
}

// Cores returns the logical core count used for normalisation.
func (p *ProcessProbe) Cores() int {
	return p.cores
}
