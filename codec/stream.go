package codec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read/write granularity of every adapter.
const ChunkSize = 1 << 20

// PartSuffix marks an output that has not been published yet.
const PartSuffix = ".part"

func compressWith(newEncoder encoderFunc) TransformFunc {
	return func(ctx context.Context, in, out string, level int) (int64, error) {
		src, err := os.Open(in)
		if err != nil {
			return 0, fmt.Errorf("open input %s: %w", in, err)
		}
		defer src.Close()

		return publish(ctx, out, func(dst io.Writer) error {
			enc, err := newEncoder(dst, level)
			if err != nil {
				return err
			}

			if err := copyChunks(ctx, enc, src); err != nil {
				enc.Close()
				return err
			}

			return enc.Close()
		})
	}
}

func decompressWith(newDecoder decoderFunc) TransformFunc {
	return func(ctx context.Context, in, out string, _ int) (int64, error) {
		src, err := os.Open(in)
		if err != nil {
			return 0, fmt.Errorf("open input %s: %w", in, err)
		}
		defer src.Close()

		return publish(ctx, out, func(dst io.Writer) error {
			dec, release, err := newDecoder(bufio.NewReaderSize(src, ChunkSize))
			if err != nil {
				return err
			}
			defer release()

			return copyChunks(ctx, dst, dec)
		})
	}
}

// publish runs fill against a sibling ".part" file and renames it onto
// out once fill and the close succeed. A cancelled fill removes the part
// file; any other failure leaves it behind.
func publish(ctx context.Context, out string, fill func(io.Writer) error) (int64, error) {
	part := out + PartSuffix

	f, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}

	if err := fill(f); err != nil {
		f.Close()

		if cancelledBy(ctx, err) {
			if rmErr := os.Remove(part); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				return 0, fmt.Errorf("remove %s: %w (after %w)", part, rmErr, err)
			}
		}

		return 0, err
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", part, err)
	}

	if err := os.Rename(part, out); err != nil {
		return 0, fmt.Errorf("publish %s: %w", out, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", out, err)
	}

	return info.Size(), nil
}

// copyChunks copies src to dst one ChunkSize read at a time and stops
// with ctx's error as soon as ctx is done.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, ChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func cancelledBy(ctx context.Context, err error) bool {
	return ctx.Err() != nil &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

// IsCancelled reports whether err is the result of a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
