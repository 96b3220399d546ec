package main

import (
	"testing"
	"time"

	"github.com/DEMCON/twincat-tools/internal/driver"
)

// The worker keeps sending progress events after the UI has stopped
// consuming them. The drain must unblock it so the outcome can be read.
func TestDrainEventsUnblocksWorker(t *testing.T) {
	events := make(chan driver.Event, 4)
	outcomeCh := make(chan formatOutcome, 1)

	go func() {
		for i := 0; i < 64; i++ {
			events <- driver.Event{Index: i, Total: 64}
		}
		outcomeCh <- formatOutcome{results: make([]driver.FormatResult, 64)}
		close(events)
	}()

	done := make(chan struct{})
	go func() {
		drainEvents(events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("drain did not unblock the event producer")
	}

	outcome := <-outcomeCh
	if len(outcome.results) != 64 {
		t.Fatalf("got %d results, want 64", len(outcome.results))
	}
}
