package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/weiihann/lossbench/harness"
)

func sampleResults() []harness.Result {
	return []harness.Result{
		{
			Operation:        harness.OpCompress,
			Codec:            "Brotli",
			Level:            1,
			File:             "photos_brotli_01.br",
			SizeBytes:        250,
			ReductionPercent: 75,
			ElapsedSeconds:   0.1234,
			PeakMemoryBytes:  1048576,
			AvgMemoryBytes:   1000.4,
			AvgCPUPercent:    12.5,
		},
		{
			Operation: harness.OpCompress,
			Codec:     "Brotli",
			Level:     2,
			File:      "photos_brotli_02.br",
			Cancelled: true,
		},
		{
			Operation:        harness.OpCompress,
			Codec:            "Zstd",
			Level:            3,
			File:             "photos_zstd_03.zst",
			SizeBytes:        1500,
			ReductionPercent: -50,
			ElapsedSeconds:   2,
		},
		{
			Operation:      harness.OpDecompress,
			Codec:          "Brotli",
			Level:          1,
			File:           "photos_brotli_01.br",
			SizeBytes:      10240,
			ElapsedSeconds: 0.05,
			AvgCPUPercent:  3.333,
			Verified:       true,
		},
		{
			Operation: harness.OpDecompress,
			Codec:     "Zstd",
			Level:     3,
			File:      "photos_zstd_03.zst",
			SizeBytes: 10000,
		},
	}
}

func render(results []harness.Result) string {
	var buf bytes.Buffer

	t := NewTable(&buf)
	t.Banner("photos", 1000)

	for _, r := range results {
		t.Row(r)
	}

	t.Finish()

	return buf.String()
}

func TestTableLayout(t *testing.T) {
	output := render(sampleResults())

	if !strings.HasPrefix(output, "Folder: photos (Original: 1000 bytes)\n") {
		t.Errorf("unexpected banner:\n%s", output)
	}
	if got := strings.Count(output, "Method  Level"); got != 2 {
		t.Errorf("compression headers = %d, want 2 (one per codec)", got)
	}
	if got := strings.Count(output, "OrigFile"); got != 1 {
		t.Errorf("decompression headers = %d, want 1", got)
	}
	if !strings.Contains(output, " Compression ") || !strings.Contains(output, " Decompression ") {
		t.Error("missing section titles")
	}

	want := "Brotli  01     250             75.00%    0.123     1048576         1000           12.50%  \n"
	if !strings.Contains(output, want) {
		t.Errorf("missing compression row %q in:\n%s", want, output)
	}
	if !strings.Contains(output, "Brotli  02      Interrupted. Operation cancelled by user.\n") {
		t.Error("missing cancelled row")
	}
	if !strings.Contains(output, "-50.00%") {
		t.Error("expected negative reduction for grown output")
	}
}

func TestTableDecompressionRows(t *testing.T) {
	output := render(sampleResults())

	lines := strings.Split(output, "\n")

	var okLine, badLine string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "photos_brotli_01.br"):
			okLine = l
		case strings.HasPrefix(l, "photos_zstd_03.zst"):
			badLine = l
		}
	}

	if !strings.HasSuffix(okLine, "10240           ok") {
		t.Errorf("verified row = %q", okLine)
	}
	if !strings.Contains(okLine, "3.33") {
		t.Errorf("cpu not rounded to 2 places: %q", okLine)
	}
	if !strings.HasSuffix(badLine, "MISMATCH") {
		t.Errorf("unverified row = %q", badLine)
	}
}

func TestTableRowsLineUp(t *testing.T) {
	output := render(sampleResults()[:1])

	var header, row string
	for _, l := range strings.Split(output, "\n") {
		switch {
		case strings.HasPrefix(l, "Method"):
			header = l
		case strings.HasPrefix(l, "Brotli"):
			row = l
		}
	}

	for _, col := range []string{"Size(bytes)", "Reduction", "Time(s)", "CPU(%)"} {
		idx := strings.Index(header, col)
		if idx <= 0 || idx >= len(row) || row[idx-1] != ' ' || row[idx] == ' ' {
			t.Errorf("column %s does not line up:\n%s\n%s", col, header, row)
		}
	}
}

func TestTitleWidth(t *testing.T) {
	for _, s := range []string{"Compression", "Decompression"} {
		if got := len(title(s)); got != ruleWidth {
			t.Errorf("title(%q) width = %d, want %d", s, got, ruleWidth)
		}
	}
}

func TestGenerateJSON(t *testing.T) {
	results := sampleResults()

	var buf bytes.Buffer
	if err := GenerateJSON(&buf, results); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var parsed []harness.Result
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(parsed) != len(results) {
		t.Fatalf("expected %d results, got %d", len(results), len(parsed))
	}
	if parsed[0].Codec != "Brotli" || parsed[0].Level != 1 {
		t.Errorf("first result = %+v", parsed[0])
	}
	if !parsed[1].Cancelled {
		t.Error("cancelled flag lost")
	}
	if parsed[3].Operation != harness.OpDecompress || !parsed[3].Verified {
		t.Errorf("decompression result = %+v", parsed[3])
	}
}

func TestGenerateJSONKeepsZeroValues(t *testing.T) {
	var buf bytes.Buffer

	err := GenerateJSON(&buf, []harness.Result{{
		Operation: harness.OpCompress,
		Codec:     "Zstd",
		File:      "photos_zstd_custom.zst",
	}})
	if err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	for _, key := range []string{"level", "reduction_percent"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("%s missing from %s", key, buf.String())
		}
	}
}

func TestGenerateCSV(t *testing.T) {
	results := sampleResults()

	var buf bytes.Buffer
	if err := GenerateCSV(&buf, results); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != len(results)+1 {
		t.Fatalf("expected %d records, got %d", len(results)+1, len(records))
	}

	header := records[0]
	if header[0] != "operation" || header[1] != "codec" {
		t.Errorf("header = %v", header)
	}
	if records[1][1] != "Brotli" || records[1][2] != "1" {
		t.Errorf("first row = %v", records[1])
	}
}
