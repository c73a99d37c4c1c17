// Package harness drives the codec benchmark: it runs every codec at
// every level under the resource sampler and decompresses the results.
package harness

// Operation names the direction of a run.
type Operation string

const (
	OpCompress   Operation = "compress"
	OpDecompress Operation = "decompress"
)

// Result holds one measured run.
type Result struct {
	Operation        Operation `json:"operation" csv:"operation"`
	Codec            string    `json:"codec" csv:"codec"`
	Level            int       `json:"level" csv:"level"`
	File             string    `json:"file" csv:"file"`
	SizeBytes        int64     `json:"size_bytes" csv:"size_bytes"`
	ReductionPercent float64   `json:"reduction_percent" csv:"reduction_percent"`
	ElapsedSeconds   float64   `json:"elapsed_seconds" csv:"elapsed_seconds"`
	PeakMemoryBytes  uint64    `json:"peak_memory_bytes" csv:"peak_memory_bytes"`
	AvgMemoryBytes   float64   `json:"avg_memory_bytes" csv:"avg_memory_bytes"`
	AvgCPUPercent    float64   `json:"avg_cpu_percent" csv:"avg_cpu_percent"`
	Cancelled        bool      `json:"cancelled,omitempty" csv:"cancelled"`
	Verified         bool      `json:"verified,omitempty" csv:"verified"`
}

// Reduction returns the percentage by which compressed undercuts
// original. It is negative when the output grew and 0 when original is 0.
func Reduction(compressed, original int64) float64 {
	if original == 0 {
		return 0
	}

	return 100 * (1 - float64(compressed)/float64(original))
}
