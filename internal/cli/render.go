package cli

import (
	"context"
	"fmt"
	"path/filepath"
)

// Represents the 'forged render' command.
type RenderCmd struct {
	File    string `arg:"" optional:"" help:"Path to the image descriptor. Defaults to one found in the current directory." placeholder:"PATH"`
	Context string `short:"c" default:"." help:"Directory to probe when no descriptor path is given." placeholder:"DIR"`
}

// Executes the render command.
//
// Parses the descriptor and writes its Dockerfile form to stdout. Useful
// for checking how a YAML descriptor translates, and for handing a build
// off to other tooling.
func (c *RenderCmd) Run(ctx context.Context) error {
	contextDir, err := filepath.Abs(c.Context)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClient, err)
	}

	img, err := loadDescriptor(c.File, contextDir)
	if err != nil {
		return err
	}

	fmt.Print(img.Dockerfile())
	return nil
}
