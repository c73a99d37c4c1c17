package harness

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/weiihann/lossbench/codec"
)

const (
	resultsDirName      = "Results_Lossless_Go"
	decompressedDirName = "Decompressed_Go"
)

// ResultsDir returns the directory that receives compressed artifacts
// for the given input folder: a sibling of the folder.
func ResultsDir(folder string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(folder)), resultsDirName)
}

// DecompressedDir returns the directory nested in resultsDir that
// receives decompressed archives.
func DecompressedDir(resultsDir string) string {
	return filepath.Join(resultsDir, decompressedDirName)
}

// ArtifactName returns the file name of a compressed artifact,
// e.g. "photos_zstd_03.zst".
func ArtifactName(name string, c codec.Codec, level int) string {
	return fmt.Sprintf("%s_%s_%02d%s", name, c.Key, level, c.Ext)
}

// DecompressedName returns the file name of a decompressed artifact.
func DecompressedName(artifact string) string {
	return artifact + ".tar"
}

// ParseArtifact resolves the codec and level of a file in the results
// directory. It reports false for files that do not belong to name or
// whose extension no codec writes.
func ParseArtifact(fileName, name string) (codec.Codec, int, bool) {
	prefix := name + "_"
	if !strings.HasPrefix(fileName, prefix) {
		return codec.Codec{}, 0, false
	}

	ext := filepath.Ext(fileName)

	c, ok := codec.ByExtension(ext)
	if !ok {
		return codec.Codec{}, 0, false
	}

	// The level is informational; foreign names that still carry the
	// prefix and extension are decompressed with level 0.
	stem := strings.TrimSuffix(strings.TrimPrefix(fileName, prefix), ext)
	key, levelStr, found := strings.Cut(stem, "_")
	if !found || key != c.Key {
		return c, 0, true
	}

	level, err := strconv.Atoi(levelStr)
	if err != nil {
		return c, 0, true
	}

	return c, level, true
}
