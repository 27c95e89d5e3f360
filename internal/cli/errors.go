package cli

import "errors"

var (
	// Returned when a command fails before contacting the daemon.
	ErrClient = errors.New("client error")

	// Returned when the daemon socket cannot be reached.
	ErrConnect = errors.New("connection error")

	// Returned when the daemon reports a command failure.
	ErrDaemon = errors.New("daemon error")
)
