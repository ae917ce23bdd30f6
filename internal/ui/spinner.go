package ui

import (
	"time"

	"github.com/briandowns/spinner"
)

// ProgressReporter receives stage updates while a report is being generated.
type ProgressReporter interface {
	Update(message string)
	Stop()
}

// Discard ignores all progress updates. Used by the HTTP server and JSON output.
var Discard ProgressReporter = discard{}

type discard struct{}

func (discard) Update(string) {}
func (discard) Stop()         {}

// SpinnerProgress implements ProgressReporter using briandowns/spinner
type SpinnerProgress struct {
	spinner *spinner.Spinner
}

func NewSpinnerProgress() *SpinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = "  "
	s.Color("cyan", "bold")

	return &SpinnerProgress{
		spinner: s,
	}
}

func (sp *SpinnerProgress) Start(message string) {
	sp.spinner.Suffix = "  " + message
	sp.spinner.Start()
}

func (sp *SpinnerProgress) Update(message string) {
	sp.spinner.Lock()
	sp.spinner.Suffix = "  " + message
	sp.spinner.Unlock()
}

func (sp *SpinnerProgress) Stop() {
	if sp.spinner.Active() {
		sp.spinner.Stop()
	}
}
