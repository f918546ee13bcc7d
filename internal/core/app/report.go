// # internal/core/app/report.go
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"orphan/internal/engine/graph"
)

// Report is the analysis result handed to callers and formatters.
type Report struct {
	UnusedFiles []string        `json:"unusedFiles"`
	TotalFiles  int             `json:"totalFiles"`
	UnusedCount int             `json:"unusedCount"`
	Warnings    []graph.Warning `json:"warnings,omitempty"`
	RunID       string          `json:"runId"`
	Elapsed     time.Duration   `json:"-"`
}

func NewReport(unusedFiles []string, totalFiles int, warnings []graph.Warning, runID string, elapsed time.Duration) *Report {
	if unusedFiles == nil {
		unusedFiles = []string{}
	}
	return &Report{
		UnusedFiles: unusedFiles,
		TotalFiles:  totalFiles,
		UnusedCount: len(unusedFiles),
		Warnings:    warnings,
		RunID:       runID,
		Elapsed:     elapsed,
	}
}

var (
	headerColor = color.New(color.FgRed, color.Bold)
	fileColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
)

// WriteText renders the human-readable report.
func (r *Report) WriteText(w io.Writer) {
	if r.UnusedCount == 0 {
		okColor.Fprintln(w, "No unused files found.")
		dimColor.Fprintf(w, "%d files checked in %s\n", r.TotalFiles, r.Elapsed.Round(time.Millisecond))
		return
	}

	headerColor.Fprintf(w, "Unused files (%d):\n", r.UnusedCount)
	for _, file := range r.UnusedFiles {
		fileColor.Fprintf(w, "  %s\n", file)
	}
	fmt.Fprintf(w, "\n%d/%d files unused\n", r.UnusedCount, r.TotalFiles)
}

// WriteWarnings renders the drained warning list, usually to stderr.
func (r *Report) WriteWarnings(w io.Writer) {
	for _, warning := range r.Warnings {
		dimColor.Fprintf(w, "warning: %s\n", warning)
	}
}

// WriteJSON renders the machine-readable report.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
