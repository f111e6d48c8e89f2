package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"

	stepOK     = "ok"
	stepFailed = "failed"

	previewLength = 200
)

// Summary records the outcome of a scenario run.
type Summary struct {
	Scenario  string            `json:"scenario"`
	Status    string            `json:"status"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  string            `json:"duration"`
	Steps     []StepResult      `json:"steps"`
	Captured  map[string]string `json:"captured,omitempty"`
	Error     string            `json:"error,omitempty"`

	optionalFailures int
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int    `json:"index"`
	Action   Action `json:"action"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newSummary(name string, start time.Time) *Summary {
	return &Summary{
		Scenario:  name,
		Status:    "running",
		StartTime: start,
		Captured:  make(map[string]string),
	}
}

// finish stamps the end time and status and passes err through.
func (s *Summary) finish(end time.Time, err error) error {
	s.EndTime = end
	s.Duration = end.Sub(s.StartTime).String()
	switch {
	case err != nil:
		s.Status = statusFailed
		s.Error = err.Error()
	case s.optionalFailures > 0:
		s.Status = statusPartialSuccess
	default:
		s.Status = statusSuccess
	}
	return err
}

// Succeeded reports whether every required step passed.
func (s *Summary) Succeeded() bool {
	return s.Status == statusSuccess || s.Status == statusPartialSuccess
}

// WriteJSON writes the summary to path, creating parent directories.
func (s *Summary) WriteJSON(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}
