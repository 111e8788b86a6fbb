package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/trainer-admin/internal/observable"
)

func wrapInt(v int) tea.Msg { return v }

func TestWatcherReplaysCurrentValue(t *testing.T) {
	v := observable.New(7)
	w := watch(v.Subscribe)
	defer w.stop()

	if got := w.next(wrapInt)(); got != 7 {
		t.Errorf("expected replayed 7, got %v", got)
	}
}

func TestWatcherKeepsLatest(t *testing.T) {
	v := observable.New(0)
	w := watch(v.Subscribe)
	defer w.stop()

	v.Set(1)
	v.Set(2)
	v.Set(3)

	if got := w.next(wrapInt)(); got != 3 {
		t.Errorf("expected latest value 3, got %v", got)
	}
}

func TestWatcherStopReleasesWaiter(t *testing.T) {
	v := observable.New(0)
	w := watch(v.Subscribe)
	w.next(wrapInt)() // drain replay

	done := make(chan tea.Msg, 1)
	go func() { done <- w.next(wrapInt)() }()

	w.stop()
	w.stop()

	select {
	case msg := <-done:
		if msg != nil {
			t.Errorf("expected no message after stop, got %v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released by stop")
	}

	// Updates after stop are not delivered
	v.Set(5)
	select {
	case got := <-w.ch:
		t.Errorf("unexpected delivery after stop: %v", got)
	default:
	}
}
