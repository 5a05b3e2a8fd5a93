package emulator

import (
	"sync"

	"github.com/faiyaz032/gobox/internal/event"
)

// ResizeWatcher reports size changes of the process's terminal.
type ResizeWatcher struct {
	resized event.Listeners[struct{}]
	once    sync.Once
	stop    func()
}

// OnResize registers fn for every terminal resize.
func (w *ResizeWatcher) OnResize(fn func()) (unsubscribe func()) {
	return w.resized.Add(func(struct{}) { fn() })
}

// Stop ends the watch. It is idempotent.
func (w *ResizeWatcher) Stop() {
	w.once.Do(func() {
		if w.stop != nil {
			w.stop()
		}
		w.resized.Clear()
	})
}
