// Package workload prepares the benchmark input: it sizes the source
// folder, packs it into a single uncompressed tar archive and digests the
// archive so that decompressed output can be checked against it.
package workload

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
)

// FolderSize returns the total size of the regular files under root.
// A symlinked root is followed; symlinks below it are followed for sizing
// but not traversed as directories.
func FolderSize(root string) (int64, error) {
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", root, err)
	}

	var size int64

	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			// Dangling symlink.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			return err
		}

		if info.Mode().IsRegular() {
			size += info.Size()
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", root, err)
	}

	return size, nil
}

// Archive writes the directory root into a tar file at dst. Entries are
// stored under the base name of root, even when root is a symlink to the
// directory; symlinks below root are stored as links.
// The archive is only checked for cancellation between entries.
func Archive(ctx context.Context, root, dst string) (err error) {
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", root, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", dst, err)
	}

	tw := tar.NewWriter(f)

	defer func() {
		var closeErrs *multierror.Error
		if cerr := tw.Close(); cerr != nil {
			closeErrs = multierror.Append(closeErrs, fmt.Errorf("close tar: %w", cerr))
		}
		if cerr := f.Close(); cerr != nil {
			closeErrs = multierror.Append(closeErrs, fmt.Errorf("close %s: %w", dst, cerr))
		}

		switch {
		case closeErrs == nil:
		case err != nil:
			err = multierror.Append(err, closeErrs.Errors...)
		default:
			err = closeErrs.ErrorOrNil()
		}
	}()

	base := filepath.Base(root)

	return filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return err
		}

		name := base
		if rel != "." {
			name = path.Join(base, filepath.ToSlash(rel))
		}

		return addEntry(tw, p, name, d)
	})
}

func addEntry(tw *tar.Writer, p, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", p, err)
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return fmt.Errorf("readlink %s: %w", p, err)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("header %s: %w", p, err)
	}

	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("open %s: %w", p, err)
	}
	defer src.Close()

	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("archive %s: %w", p, err)
	}

	return nil
}

// Digest identifies file contents by size and xxhash64.
type Digest struct {
	Size int64
	Sum  uint64
}

// DigestFile streams the file at p through xxhash.
func DigestFile(p string) (Digest, error) {
	f, err := os.Open(p)
	if err != nil {
		return Digest{}, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h := xxhash.New()

	n, err := io.Copy(h, f)
	if err != nil {
		return Digest{}, fmt.Errorf("digest %s: %w", p, err)
	}

	return Digest{Size: n, Sum: h.Sum64()}, nil
}
