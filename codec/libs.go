package codec

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type encoderFunc func(w io.Writer, level int) (io.WriteCloser, error)

type decoderFunc func(r io.Reader) (io.Reader, func(), error)

func newBrotliWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, level), nil
}

func newBrotliReader(r io.Reader) (io.Reader, func(), error) {
	return brotli.NewReader(r), func() {}, nil
}

func newZstdWriter(w io.Writer, level int) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder level %d: %w", level, err)
	}

	return enc, nil
}

func newZstdReader(r io.Reader) (io.Reader, func(), error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return dec, dec.Close, nil
}

// lz4Levels maps the 1..16 level range onto the library's compression
// levels. 1-2 use the fast compressor, 3-11 step through the HC levels
// and anything above saturates at the highest one.
var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level < 1:
		return lz4.Fast
	case level > len(lz4Levels):
		return lz4.Level9
	default:
		return lz4Levels[level-1]
	}
}

func newLZ4Writer(w io.Writer, level int) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
		return nil, fmt.Errorf("lz4 writer level %d: %w", level, err)
	}

	return zw, nil
}

func newLZ4Reader(r io.Reader) (io.Reader, func(), error) {
	return lz4.NewReader(r), func() {}, nil
}
