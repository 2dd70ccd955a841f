package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/ghostswarm/internal/results"
)

// JSONReporter writes each report as an indented JSON document.
type JSONReporter struct {
	w   io.WriteCloser
	enc *jsoniter.Encoder
}

// NewJSONReporter creates a JSON reporter that owns w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONReporter{w: w, enc: enc}
}

func (r *JSONReporter) Write(report *results.Report) error {
	if err := r.enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	return r.w.Close()
}
