package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/weiihann/lossbench/codec"
	"github.com/weiihann/lossbench/sampler"
	"github.com/weiihann/lossbench/workload"
)

// Input is the prepared benchmark input shared by every run.
type Input struct {
	// Name is the base name of the benchmarked folder. It prefixes
	// every artifact.
	Name         string
	ArchivePath  string
	OriginalSize int64
	Archive      workload.Digest
}

// Config holds parameters shared by every run.
type Config struct {
	ResultsDir  string
	Interval    time.Duration
	CancelScope CancelScope
}

// Runner measures codec runs against a prepared Input.
type Runner struct {
	Probe      sampler.Probe
	Interrupts *Interrupts
	Config     Config
	Logger     *slog.Logger

	// OnResult, if set, is called with every result as soon as it is
	// measured.
	OnResult func(Result)
}

// NewRunner creates a Runner. interrupts may be nil, in which case
// cancellation comes only from the caller's context.
func NewRunner(
	probe sampler.Probe,
	interrupts *Interrupts,
	cfg Config,
	logger *slog.Logger,
) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = sampler.DefaultInterval
	}
	if cfg.CancelScope == "" {
		cfg.CancelScope = ScopeCodec
	}

	return &Runner{
		Probe:      probe,
		Interrupts: interrupts,
		Config:     cfg,
		Logger:     logger,
	}
}

// Compress runs c at every level of its range. An interrupted level
// ends the loop with a cancelled result and a nil error; whether the
// interrupt also reaches the caller depends on Config.CancelScope.
// Other failures are returned.
func (r *Runner) Compress(ctx context.Context, c codec.Codec, in Input) ([]Result, error) {
	logger := r.Logger.With(slog.String("codec", c.Name))

	if r.Interrupts != nil && r.Config.CancelScope == ScopeCodec {
		var release func()
		ctx, release = r.Interrupts.Scope(ctx)
		defer release()
	}

	if err := os.MkdirAll(r.Config.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir %s: %w", r.Config.ResultsDir, err)
	}

	levels := c.Levels()
	results := make([]Result, 0, len(levels))

	for _, level := range levels {
		name := ArtifactName(in.Name, c, level)
		out := filepath.Join(r.Config.ResultsDir, name)

		m, err := sampler.Measure(ctx, r.Probe, r.Config.Interval,
			func(ctx context.Context) (int64, error) {
				return c.Compress(ctx, in.ArchivePath, out, level)
			})

		if err != nil && codec.IsCancelled(err) {
			logger.Warn("compression cancelled", slog.Int("level", level))

			res := Result{
				Operation: OpCompress,
				Codec:     c.Name,
				Level:     level,
				File:      name,
				Cancelled: true,
			}
			r.emit(res)

			return append(results, res), nil
		}

		if err != nil {
			return results, fmt.Errorf("compress %s level %d: %w", c.Name, level, err)
		}

		res := fromMeasurement(m)
		res.Operation = OpCompress
		res.Codec = c.Name
		res.Level = level
		res.File = name
		res.ReductionPercent = Reduction(m.Result, in.OriginalSize)

		logger.Debug("compressed",
			slog.Int("level", level),
			slog.Int64("size", m.Result),
			slog.Duration("elapsed", m.Elapsed),
		)

		r.emit(res)
		results = append(results, res)
	}

	return results, nil
}

// Decompress decompresses every artifact of in.Name found in the
// results directory into DecompressedDir and checks each output against
// the archive digest. Any failure, including cancellation, is returned.
func (r *Runner) Decompress(ctx context.Context, in Input) ([]Result, error) {
	entries, err := os.ReadDir(r.Config.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.Config.ResultsDir, err)
	}

	outDir := DecompressedDir(r.Config.ResultsDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	var results []Result

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		c, level, ok := ParseArtifact(entry.Name(), in.Name)
		if !ok {
			continue
		}

		src := filepath.Join(r.Config.ResultsDir, entry.Name())
		dst := filepath.Join(outDir, DecompressedName(entry.Name()))

		m, err := sampler.Measure(ctx, r.Probe, r.Config.Interval,
			func(ctx context.Context) (int64, error) {
				return c.Decompress(ctx, src, dst, 0)
			})
		if err != nil {
			return results, fmt.Errorf("decompress %s: %w", entry.Name(), err)
		}

		got, err := workload.DigestFile(dst)
		if err != nil {
			return results, err
		}

		res := fromMeasurement(m)
		res.Operation = OpDecompress
		res.Codec = c.Name
		res.Level = level
		res.File = entry.Name()
		res.Verified = got == in.Archive

		if !res.Verified {
			r.Logger.Warn("decompressed output differs from archive",
				slog.String("file", entry.Name()),
				slog.Int64("size", got.Size),
				slog.Int64("archive_size", in.Archive.Size),
			)
		}

		r.emit(res)
		results = append(results, res)
	}

	return results, nil
}

func (r *Runner) emit(res Result) {
	if r.OnResult != nil {
		r.OnResult(res)
	}
}

func fromMeasurement(m sampler.Measurement[int64]) Result {
	return Result{
		SizeBytes:       m.Result,
		ElapsedSeconds:  m.Elapsed.Seconds(),
		PeakMemoryBytes: m.PeakMemoryBytes,
		AvgMemoryBytes:  m.AvgMemoryBytes,
		AvgCPUPercent:   m.AvgCPUPercent,
	}
}
