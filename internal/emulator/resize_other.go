//go:build !unix

package emulator

// WatchResize returns a watcher that never fires. Terminals without
// SIGWINCH are fitted once at open.
func WatchResize() *ResizeWatcher {
	return &ResizeWatcher{}
}
