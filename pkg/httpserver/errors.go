package httpserver

import "errors"

var (
	// ErrStart reports a listener that never came up or died while serving.
	ErrStart = errors.New("http server failed to start")
	// ErrShutdown reports a drain that did not finish cleanly.
	ErrShutdown = errors.New("http server failed to shut down cleanly")
)
