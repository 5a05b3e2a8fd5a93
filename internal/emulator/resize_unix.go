//go:build unix

package emulator

import (
	"os"
	"os/signal"
	"syscall"
)

// WatchResize follows SIGWINCH until Stop.
func WatchResize() *ResizeWatcher {
	w := &ResizeWatcher{}
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sig:
				w.resized.Emit(struct{}{})
			}
		}
	}()

	w.stop = func() {
		signal.Stop(sig)
		close(done)
	}
	return w
}
