// ABOUTME: Bridges observable subscriptions into bubbletea commands
// ABOUTME: Keeps only the latest undelivered value so publishers never block

package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// watcher holds one subscription. At most one value waits for delivery;
// a newer value replaces it.
type watcher[T any] struct {
	ch     chan T
	done   chan struct{}
	cancel func()
	once   sync.Once
}

func watch[T any](subscribe func(func(T)) func()) *watcher[T] {
	w := &watcher[T]{
		ch:   make(chan T, 1),
		done: make(chan struct{}),
	}
	w.cancel = subscribe(w.push)
	return w
}

func (w *watcher[T]) push(v T) {
	for {
		select {
		case w.ch <- v:
			return
		default:
		}
		select {
		case <-w.ch:
		default:
		}
	}
}

// next waits for the next value and wraps it. It returns no message once
// the watcher is stopped.
func (w *watcher[T]) next(wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case v := <-w.ch:
			return wrap(v)
		case <-w.done:
			return nil
		}
	}
}

func (w *watcher[T]) stop() {
	w.once.Do(func() {
		w.cancel()
		close(w.done)
	})
}
