// Package codec adapts the benchmarked compression libraries to a common
// file-to-file interface. Every adapter streams in ChunkSize pieces and
// publishes its output with an atomic rename.
package codec

import (
	"context"
	"strings"
)

// TransformFunc streams the file at in to out and returns the size of
// the published output. Decompressors ignore level.
type TransformFunc func(ctx context.Context, in, out string, level int) (int64, error)

// Codec describes one benchmarked compressor.
type Codec struct {
	// Name is the display name used in reports.
	Name string
	// Key is the lowercase token used in artifact file names.
	Key string
	// Ext is the artifact extension including the leading dot.
	Ext string

	MinLevel int
	MaxLevel int

	Compress   TransformFunc
	Decompress TransformFunc
}

// Levels returns every level in the codec's supported range, ascending.
func (c Codec) Levels() []int {
	levels := make([]int, 0, c.MaxLevel-c.MinLevel+1)
	for l := c.MinLevel; l <= c.MaxLevel; l++ {
		levels = append(levels, l)
	}

	return levels
}

// Brotli is the general-purpose entropy + dictionary coder.
var Brotli = Codec{
	Name:       "Brotli",
	Key:        "brotli",
	Ext:        ".br",
	MinLevel:   1,
	MaxLevel:   11,
	Compress:   compressWith(newBrotliWriter),
	Decompress: decompressWith(newBrotliReader),
}

// Zstd is the frame-based compressor with configurable levels.
var Zstd = Codec{
	Name:       "Zstd",
	Key:        "zstd",
	Ext:        ".zst",
	MinLevel:   1,
	MaxLevel:   22,
	Compress:   compressWith(newZstdWriter),
	Decompress: decompressWith(newZstdReader),
}

// LZ4 is the fast block compressor, written as LZ4 frames.
var LZ4 = Codec{
	Name:       "LZ4",
	Key:        "lz4",
	Ext:        ".lz4",
	MinLevel:   1,
	MaxLevel:   16,
	Compress:   compressWith(newLZ4Writer),
	Decompress: decompressWith(newLZ4Reader),
}

// All returns the benchmarked codecs in run order.
func All() []Codec {
	return []Codec{Brotli, Zstd, LZ4}
}

// ByExtension returns the codec that writes files ending in ext.
func ByExtension(ext string) (Codec, bool) {
	for _, c := range All() {
		if strings.EqualFold(c.Ext, ext) {
			return c, true
		}
	}

	return Codec{}, false
}
