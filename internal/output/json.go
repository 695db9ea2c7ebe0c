package output

import (
	"encoding/json"

	"github.com/tornwatch/tornwatch/internal/core"
)

// JSONFormatter renders reports as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatCycle renders a cycle report as JSON.
func (f *JSONFormatter) FormatCycle(report *core.CycleReport) (string, error) {
	return f.render(report)
}

// FormatStatus renders a status report as JSON.
func (f *JSONFormatter) FormatStatus(report *core.StatusReport) (string, error) {
	return f.render(report)
}

func (f *JSONFormatter) render(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
