package service

import (
	"sync"
	"time"
)

// Debouncer runs a function once the calls stop arriving for a full window.
// Each Do resets the timer, so only the last call in a burst fires.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels a pending run, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SearchBox feeds keystroke-level search terms through a debounce window and
// hands the settled term to apply. Terms typed inside the window are dropped
// in favour of the latest one.
type SearchBox struct {
	deb   *Debouncer
	apply func(term string)

	mu   sync.Mutex
	term string
}

func NewSearchBox(window time.Duration, apply func(term string)) *SearchBox {
	return &SearchBox{deb: NewDebouncer(window), apply: apply}
}

func (b *SearchBox) SetTerm(term string) {
	b.mu.Lock()
	b.term = term
	b.mu.Unlock()

	b.deb.Do(func() {
		b.mu.Lock()
		term := b.term
		b.mu.Unlock()
		b.apply(term)
	})
}

func (b *SearchBox) Stop() { b.deb.Stop() }
