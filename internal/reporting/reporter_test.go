// internal/reporting/reporter_test.go
package reporting_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/ghostswarm/internal/reporting"
	"github.com/xkilldash9x/ghostswarm/internal/results"
)

// bufferCloser records whether Close was called.
type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func sampleReport() *results.Report {
	return results.NewReport(&results.Batch{
		ID:        uuid.MustParse("6f1c2b7e-1d2a-4c3b-9e8f-0a1b2c3d4e5f"),
		Algorithm: "bayesian",
		Layout:    "classic",
		Agents:    4,
		Colours:   2,
		Runs: []results.RunResult{
			{Index: 0, Seed: 1, Rounds: 80, Converged: true, Answers: []int{0, 0, 0, 1}, Accuracy: 0.75},
			{Index: 1, Seed: 2, Rounds: 120, Converged: true, Answers: []int{0, 0, 0, 0}, Accuracy: 1},
		},
	})
}

func TestNew_Stdout(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		r, err := reporting.New(format, "stdout")
		require.NoError(t, err)
		assert.NoError(t, r.Close(), "closing stdout is a no-op")

		r, err = reporting.New(format, "")
		require.NoError(t, err)
		assert.NoError(t, r.Close())
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r, err := reporting.New("json", path)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean": 0.875`)
}

func TestNew_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	r, err := reporting.New("xml", path)
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "unsupported output format: xml")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is created for an unknown format")

	_, err = reporting.NewWithWriter("xml", &bufferCloser{})
	assert.Error(t, err)
}

func TestNew_FileCreationFailure(t *testing.T) {
	r, err := reporting.New("text", t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestJSONReporter(t *testing.T) {
	buf := &bufferCloser{}
	r, err := reporting.NewWithWriter("json", buf)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())
	assert.True(t, buf.closed)

	var decoded results.Report
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "classic", decoded.Batch.Layout)
	assert.Len(t, decoded.Batch.Runs, 2)
	assert.Equal(t, 2, decoded.Summary.Converged)
	assert.InDelta(t, 0.875, decoded.Summary.Accuracy.Mean, 1e-12)
	assert.InDelta(t, 100, decoded.Summary.Rounds.Mean, 1e-9)
}

func TestTextReporter(t *testing.T) {
	buf := &bufferCloser{}
	r, err := reporting.NewWithWriter("text", buf)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	out := buf.String()
	assert.Contains(t, out, "6f1c2b7e-1d2a-4c3b-9e8f-0a1b2c3d4e5f")
	assert.Contains(t, out, "2 converged, 100.0%")
	assert.Contains(t, out, "mean 0.875")
	assert.Contains(t, out, "min 80")
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "0.750")
	assert.True(t, buf.closed)
}
