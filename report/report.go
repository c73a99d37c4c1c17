// Package report formats benchmark results as fixed-width console
// tables, JSON or CSV.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/weiihann/lossbench/harness"
)

const ruleWidth = 87

// Table streams fixed-width rows to w as results arrive. It prints a
// new header whenever the codec or the operation changes.
type Table struct {
	w      io.Writer
	codec  string
	decomp bool
}

// NewTable creates a Table writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

// Banner prints the input folder summary and the compression title.
func (t *Table) Banner(name string, originalSize int64) {
	fmt.Fprintf(t.w, "Folder: %s (Original: %d bytes)\n", name, originalSize)
	t.Rule()
	fmt.Fprintln(t.w, title("Compression"))
}

// BeginCodec starts the table of a codec.
func (t *Table) BeginCodec(codec string) {
	if t.codec == codec {
		return
	}
	if t.codec != "" {
		t.Rule()
	}

	t.codec = codec
	fmt.Fprintf(t.w, "%-8s%-7s%-16s%-10s%-10s%-16s%-15s%-8s\n",
		"Method", "Level", "Size(bytes)", "Reduction", "Time(s)",
		"PeakMem(bytes)", "AvgMem(bytes)", "CPU(%)")
}

// BeginDecompression starts the decompression table.
func (t *Table) BeginDecompression() {
	if t.decomp {
		return
	}

	t.decomp = true
	t.Rule()
	fmt.Fprintln(t.w, title("Decompression"))
	fmt.Fprintf(t.w, "%-24s%-10s%-16s%-15s%-8s%-16s%s\n",
		"OrigFile", "Time(s)", "PeakMem(bytes)", "AvgMem(bytes)", "CPU(%)",
		"Size(bytes)", "Match")
}

// Finish closes the last table.
func (t *Table) Finish() {
	t.Rule()
}

// Rule prints a horizontal separator.
func (t *Table) Rule() {
	fmt.Fprintln(t.w, strings.Repeat("-", ruleWidth))
}

// Row prints r in the layout matching its operation.
func (t *Table) Row(r harness.Result) {
	if r.Operation == harness.OpDecompress {
		t.BeginDecompression()
		t.decompressionRow(r)

		return
	}

	t.BeginCodec(r.Codec)
	t.compressionRow(r)
}

func (t *Table) compressionRow(r harness.Result) {
	level := fmt.Sprintf("%02d", r.Level)

	if r.Cancelled {
		fmt.Fprintf(t.w, "%-8s%-7s Interrupted. Operation cancelled by user.\n",
			r.Codec, level)

		return
	}

	fmt.Fprintf(t.w, "%-8s%-7s%-16d%-10s%-10.3f%-16d%-15.0f%-8s\n",
		r.Codec,
		level,
		r.SizeBytes,
		fmt.Sprintf("%.2f%%", r.ReductionPercent),
		r.ElapsedSeconds,
		r.PeakMemoryBytes,
		r.AvgMemoryBytes,
		fmt.Sprintf("%.2f%%", r.AvgCPUPercent),
	)
}

func (t *Table) decompressionRow(r harness.Result) {
	match := "ok"
	if !r.Verified {
		match = "MISMATCH"
	}

	fmt.Fprintf(t.w, "%-24s%-10.3f%-16d%-15.0f%-8.2f%-16d%s\n",
		r.File,
		r.ElapsedSeconds,
		r.PeakMemoryBytes,
		r.AvgMemoryBytes,
		r.AvgCPUPercent,
		r.SizeBytes,
		match,
	)
}

func title(s string) string {
	pad := ruleWidth - len(s) - 2
	if pad < 2 {
		return s
	}

	left := pad / 2

	return strings.Repeat("=", left) + " " + s + " " + strings.Repeat("=", pad-left)
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

// GenerateCSV writes results as CSV with a header row to w.
func GenerateCSV(w io.Writer, results []harness.Result) error {
	if err := gocsv.Marshal(results, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}

	return nil
}
