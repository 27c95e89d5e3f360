package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgehq/forged/internal/protocol"
)

// Carries a container's exit code out of the CLI so the process can
// terminate with the same code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("container exited with code %d", e.Code)
}

// Represents the 'forged run' command.
type RunCmd struct {
	Tag string `arg:"" help:"Tag of the image to run."`
	ID  string `help:"Container ID. Defaults to one derived from the tag." placeholder:"ID"`
}

// Executes the run command.
//
// Runs the image's command to completion in a fresh container. A non-zero
// exit code from the container becomes the exit code of this process.
func (c *RunCmd) Run(ctx context.Context) error {
	slog.Info("running image", "tag", c.Tag)

	result, err := request(ctx, protocol.CmdRun, &protocol.RunRequest{
		Tag: c.Tag,
		ID:  c.ID,
	})
	if err != nil {
		return err
	}

	res, err := protocol.DecodePayload[protocol.RunResult](result)
	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}
