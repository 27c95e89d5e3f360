package cli

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/forgehq/forged/internal/protocol"
)

// Listens on a Unix socket in a temp dir and serves a single request,
// replying with the given response command and payload. Returns the socket
// path.
func serveOnce(t *testing.T, cmd protocol.Command, payload any) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "forged.sock")
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if _, err := bufio.NewReader(conn).ReadBytes('\n'); err != nil {
			return
		}
		data, err := protocol.Encode(cmd, payload)
		if err != nil {
			return
		}
		conn.Write(append(data, '\n'))
	}()

	return socket
}

// Points the root command at a socket for the duration of a test.
func useSocket(t *testing.T, socket string) {
	t.Helper()
	prev := RootCmd.Socket
	RootCmd.Socket = socket
	t.Cleanup(func() { RootCmd.Socket = prev })
}

func TestRunPropagatesExitCode(t *testing.T) {
	useSocket(t, serveOnce(t, protocol.CmdOK, &protocol.RunResult{ExitCode: 3}))

	cmd := &RunCmd{Tag: "app:latest"}
	err := cmd.Run(context.Background())

	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exit.Code != 3 {
		t.Errorf("Code = %d, want 3", exit.Code)
	}
}

func TestRunZeroExitCodeSucceeds(t *testing.T) {
	useSocket(t, serveOnce(t, protocol.CmdOK, &protocol.RunResult{ExitCode: 0}))

	cmd := &RunCmd{Tag: "app:latest"}
	if err := cmd.Run(context.Background()); err != nil {
		t.Fatalf("err = %v, want nil for a zero exit code", err)
	}
}

func TestRunDaemonErrorSurfaces(t *testing.T) {
	useSocket(t, serveOnce(t, protocol.CmdError, &protocol.ErrorResult{Message: "no such image"}))

	cmd := &RunCmd{Tag: "absent:latest"}
	err := cmd.Run(context.Background())
	if !errors.Is(err, ErrDaemon) {
		t.Fatalf("err = %v, want ErrDaemon", err)
	}
}
