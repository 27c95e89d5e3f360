// The forged daemon. Listens on a Unix domain socket for newline-delimited
// JSON commands and executes builds, runs, and image operations against
// containerd.
package server
