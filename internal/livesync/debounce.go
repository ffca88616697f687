package livesync

import (
	"sync"
	"time"
)

// debouncer collapses bursts of events per path into one flush. Saving a file
// usually produces a truncate and one or more writes in quick succession.
type debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timers   map[string]*time.Timer
	stopped  bool
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		timers:   make(map[string]*time.Timer),
	}
}

// schedule arranges for flush(path) to run once the path has been quiet for the
// debounce duration.
func (d *debouncer) schedule(path string, flush func(string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if timer, ok := d.timers[path]; ok {
		timer.Reset(d.duration)
		return
	}
	d.timers[path] = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		delete(d.timers, path)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			flush(path)
		}
	})
}

func (d *debouncer) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[path]; ok {
		timer.Stop()
		delete(d.timers, path)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, timer := range d.timers {
		timer.Stop()
		delete(d.timers, path)
	}
}
