package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/parsebench/harness"
	"github.com/weiihann/parsebench/results"
)

func TestGenerateOutcomes(t *testing.T) {
	outcomes := []harness.Outcome{
		{File: "Small.java", MemMB: 31},
		{File: "Huge.java", MemMB: 8192},
		{File: "Big.java", MemMB: 1535},
	}

	var buf bytes.Buffer
	require.NoError(t, GenerateOutcomes(&buf, outcomes, 4096))

	output := buf.String()

	assert.Contains(t, output, "Files: **3**, exceeded 4 GB: **1**")
	assert.Contains(t, output, "| Small.java | 31 MB | 32 MB |")
	assert.Contains(t, output, "| Huge.java | - | > 4 GB |")
	assert.Contains(t, output, "| Big.java | 1.5 GB | 1.5 GB |")
}

func TestGenerateOutcomesEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, GenerateOutcomes(&buf, nil, 4096))
}

func TestGenerateJSON(t *testing.T) {
	outcomes := []harness.Outcome{{File: "A.java", MemMB: 63}}

	var buf bytes.Buffer
	require.NoError(t, GenerateJSON(&buf, outcomes))

	var parsed []harness.Outcome
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, outcomes, parsed)
	assert.Contains(t, buf.String(), `"mem": 63`)
}

func TestSummarize(t *testing.T) {
	got := Summarize([]float64{5, 1, 3, 2, 4})

	assert.Equal(t, 5, got.Count)
	assert.Equal(t, 1.0, got.Min)
	assert.Equal(t, 5.0, got.Max)
	assert.InDelta(t, 3.0, got.Mean, 1e-9)
	assert.InDelta(t, 3.0, got.Median, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestGenerateStats(t *testing.T) {
	panels := results.Aggregate([]results.Dataset{
		{Name: "guava", Series: []results.Series{
			{Tool: "antlr", Values: []float64{1, 2, 3}},
		}},
		{Name: "openjdk", Series: []results.Series{
			{Tool: "antlr", Values: []float64{10}},
		}},
	}, "")

	var buf bytes.Buffer
	require.NoError(t, GenerateStats(&buf, panels))

	output := buf.String()

	all := strings.Index(output, "### All projects")
	guava := strings.Index(output, "### guava")
	openjdk := strings.Index(output, "### openjdk")

	require.NotEqual(t, -1, all)
	assert.Less(t, all, guava)
	assert.Less(t, guava, openjdk)
	assert.Contains(t, output, "| antlr | 4 | 1 |")
	assert.Contains(t, output, "| antlr | 1 | 10 | 10 | 10 | 10 |")

	assert.Error(t, GenerateStats(&buf, nil))
}

func TestFormatMB(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0 MB"},
		{512, "512 MB"},
		{1023, "1023 MB"},
		{1024, "1 GB"},
		{1536, "1.5 GB"},
		{4096, "4 GB"},
		{8192, "8 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMB(tt.input), "formatMB(%d)", tt.input)
	}
}

type flushRecorder struct {
	bytes.Buffer
	syncs int
}

func (f *flushRecorder) Sync() error {
	f.syncs++

	return nil
}

func TestOutcomeWriterFlushesEachRow(t *testing.T) {
	var out flushRecorder

	ow, err := NewOutcomeWriter(&out)
	require.NoError(t, err)
	assert.Equal(t, "file,mem\n", out.String())

	require.NoError(t, ow.Write(harness.Outcome{File: "A.java", MemMB: 99}))
	assert.Equal(t, "file,mem\nA.java,99\n", out.String())

	require.NoError(t, ow.Write(harness.Outcome{File: "B.java", MemMB: 8192}))
	assert.Equal(t, "file,mem\nA.java,99\nB.java,8192\n", out.String())
	assert.Equal(t, 3, out.syncs)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestOutcomeWriterError(t *testing.T) {
	_, err := NewOutcomeWriter(failingWriter{})
	assert.Error(t, err)
}

func TestCreateAndReadOutcomeFile(t *testing.T) {
	dir := t.TempDir()

	ow, f, err := CreateOutcomeFile(dir, "ucfs")
	require.NoError(t, err)
	require.NoError(t, ow.Write(harness.Outcome{File: "a,b.java", MemMB: 7}))
	require.NoError(t, f.Close())

	assert.Equal(t, "ucfs_res.txt", OutcomeFileName("ucfs"))

	data, err := os.ReadFile(filepath.Join(dir, "ucfs_res.txt"))
	require.NoError(t, err)

	got, err := ReadOutcomes(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []harness.Outcome{{File: "a,b.java", MemMB: 7}}, got)
}

func TestReadOutcomesErrors(t *testing.T) {
	_, err := ReadOutcomes(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadOutcomes(strings.NewReader("file,mem\na,lots\n"))
	assert.Error(t, err)
}
