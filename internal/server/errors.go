package server

import "errors"

var (
	// Returned when the server fails to start or operate.
	ErrServer = errors.New("server error")
)
