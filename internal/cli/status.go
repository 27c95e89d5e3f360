package cli

import (
	"context"
	"fmt"

	"github.com/forgehq/forged/internal/protocol"
)

// Represents the 'forged status' command.
type StatusCmd struct{}

// Executes the status command.
func (c *StatusCmd) Run(ctx context.Context) error {
	result, err := request(ctx, protocol.CmdStatus, nil)
	if err != nil {
		return err
	}

	res, err := protocol.DecodePayload[protocol.StatusResult](result)
	if err != nil {
		return err
	}

	fmt.Printf("running: %v\n", res.Running)
	fmt.Printf("version: %s\n", res.Version)
	fmt.Printf("pid:     %d\n", res.Pid)
	fmt.Printf("uptime:  %s\n", res.Uptime)
	fmt.Printf("builds:  %d\n", res.Builds)
	return nil
}

// Represents the 'forged stop' command.
type StopCmd struct{}

// Executes the stop command, asking the daemon to shut down.
func (c *StopCmd) Run(ctx context.Context) error {
	if _, err := request(ctx, protocol.CmdShutdown, nil); err != nil {
		return err
	}

	fmt.Println("daemon stopping")
	return nil
}
