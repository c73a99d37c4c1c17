package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/weiihann/lossbench/workload"
)

// Prepare sizes folder, archives it into workDir and digests the
// archive. The archive belongs to the caller, who removes workDir.
func Prepare(ctx context.Context, folder, workDir string) (Input, error) {
	folder = filepath.Clean(folder)
	name := filepath.Base(folder)

	size, err := workload.FolderSize(folder)
	if err != nil {
		return Input{}, err
	}

	archivePath := filepath.Join(workDir, name+".tar")
	if err := workload.Archive(ctx, folder, archivePath); err != nil {
		return Input{}, fmt.Errorf("archive %s: %w", folder, err)
	}

	digest, err := workload.DigestFile(archivePath)
	if err != nil {
		return Input{}, err
	}

	return Input{
		Name:         name,
		ArchivePath:  archivePath,
		OriginalSize: size,
		Archive:      digest,
	}, nil
}
