// Command-line interface for forged. Defines the kong command tree for
// both the daemon (start) and the client commands that talk to it over
// the Unix socket.
package cli
