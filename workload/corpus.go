package workload

import (
	"bufio"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
)

// CorpusConfig controls corpus generation.
type CorpusConfig struct {
	Files     int
	Dirs      int
	FileSize  int
	Seed      int64
	NoiseRate int // one random byte per NoiseRate words; 0 disables noise
}

// Summary describes a generated corpus.
type Summary struct {
	Files      int
	Dirs       int
	TotalBytes int64
}

// Generator writes deterministic, compressible folders for benchmarking
// and tests.
type Generator struct {
	cfg CorpusConfig
	rng *mrand.Rand
}

var corpusWords = []string{
	"archive", "block", "codec", "dictionary", "entropy", "frame",
	"huffman", "level", "literal", "match", "offset", "ratio",
	"stream", "symbol", "window", "the", "of", "and", "a", "to",
}

// NewGenerator creates a Generator from the given CorpusConfig.
func NewGenerator(cfg CorpusConfig) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Generate populates root with cfg.Files text files spread over
// cfg.Dirs subdirectories. The same seed always yields the same tree.
func (g *Generator) Generate(root string) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(root, 0o755); err != nil {
		return summary, fmt.Errorf("create %s: %w", root, err)
	}

	dirs := []string{root}

	for i := 0; i < g.cfg.Dirs; i++ {
		dir := filepath.Join(root, fmt.Sprintf("dir%03d", i))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return summary, fmt.Errorf("create %s: %w", dir, err)
		}

		dirs = append(dirs, dir)
		summary.Dirs++
	}

	for i := 0; i < g.cfg.Files; i++ {
		dir := dirs[i%len(dirs)]
		p := filepath.Join(dir, fmt.Sprintf("file%04d.txt", i))

		n, err := g.writeFile(p)
		if err != nil {
			return summary, err
		}

		summary.Files++
		summary.TotalBytes += n
	}

	return summary, nil
}

func (g *Generator) writeFile(p string) (int64, error) {
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", p, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	var written int64

	for written < int64(g.cfg.FileSize) {
		word := corpusWords[g.rng.Intn(len(corpusWords))]
		chunk := append([]byte(word), ' ')

		if g.cfg.NoiseRate > 0 && g.rng.Intn(g.cfg.NoiseRate) == 0 {
			chunk = append(chunk, byte(g.rng.Intn(256)))
		}

		if remaining := int64(g.cfg.FileSize) - written; int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}

		n, err := w.Write(chunk)
		written += int64(n)

		if err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}
	}

	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flush %s: %w", p, err)
	}

	return written, f.Close()
}
