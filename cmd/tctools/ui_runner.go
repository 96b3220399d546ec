package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DEMCON/twincat-tools/internal/driver"
	"github.com/DEMCON/twincat-tools/internal/ui"
)

type formatOutcome struct {
	results []driver.FormatResult
	err     error
}

type sortOutcome struct {
	results []driver.SortResult
	err     error
}

// drainEvents consumes leftover events until the worker closes the
// channel. When the UI stops early (error or quit) the worker may still
// be sending; without the drain it would block on a full channel and
// the outcome would never arrive.
func drainEvents(events <-chan driver.Event) {
	for range events {
	}
}

// runFormatWithUI drives FormatPaths behind the progress model. The
// file list must already be collected so the model can draw every row
// before the first event arrives.
func runFormatWithUI(ctx context.Context, title string, files []string, opts driver.FormatOptions) ([]driver.FormatResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan formatOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = func(ev driver.Event) { events <- ev }
		res, err := driver.FormatPaths(ctx, files, optsCopy)
		outcomeCh <- formatOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	drainEvents(events)
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func runSortWithUI(ctx context.Context, title string, files []string, opts driver.SortOptions) ([]driver.SortResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan sortOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = func(ev driver.Event) { events <- ev }
		res, err := driver.SortPaths(ctx, files, optsCopy)
		outcomeCh <- sortOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	drainEvents(events)
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
