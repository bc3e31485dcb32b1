package service

import "github.com/tejashwikalptaru/spectratune/internal/ports"

// ImmediateDispatcher runs work on the calling goroutine.
// It is used in tests and headless runs where there is no UI loop.
type ImmediateDispatcher struct{}

// Do runs fn immediately.
func (ImmediateDispatcher) Do(fn func()) {
	fn()
}

var _ ports.Dispatcher = ImmediateDispatcher{}
