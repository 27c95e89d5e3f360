package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/forgehq/forged/internal/paths"
	"github.com/forgehq/forged/internal/protocol"
)

// Sends a single command to the daemon and returns the decoded response
// payload.
//
// The exchange is one request line and one response line over the Unix
// socket. An error response from the daemon is surfaced as [ErrDaemon]
// wrapping the daemon's message.
func request(ctx context.Context, cmd protocol.Command, payload any) (json.RawMessage, error) {
	socketPath := RootCmd.Socket
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: is the daemon running? %w", ErrConnect, err)
	}
	defer conn.Close()

	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	env, result, err := protocol.Decode(line)
	if err != nil {
		return nil, err
	}

	if env.Command == protocol.CmdError {
		msg, err := protocol.DecodePayload[protocol.ErrorResult](result)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrDaemon, msg.Message)
	}

	return result, nil
}
