package server

import "errors"

var (
	// ErrServerAlreadyRunning is returned by Start on a running server.
	ErrServerAlreadyRunning = errors.New("server is already running")
	// ErrListen wraps a failure to bind the listening address.
	ErrListen = errors.New("listen failed")
)
