// Package protocol defines the wire format between clients and the daemon.
//
// Messages are newline-delimited JSON envelopes carrying a command name and
// a command-specific payload. Each connection holds a single
// request-response exchange. Request and result payload types for every
// command live alongside the envelope codec.
package protocol
