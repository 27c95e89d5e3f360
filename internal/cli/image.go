package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/forgehq/forged/internal/protocol"
)

// Represents the 'forged image' command group.
type ImageCmd struct {
	Import  ImageImportCmd  `cmd:"" help:"Import an image from an OCI archive."`
	Destroy ImageDestroyCmd `cmd:"" help:"Remove an image from the image store."`
}

// Represents the 'forged image import' command.
type ImageImportCmd struct {
	Path string `arg:"" help:"Path to the OCI archive."`
	Tag  string `arg:"" optional:"" help:"Tag to apply. Defaults to the tag recorded in the archive."`
}

// Executes the image import command.
func (c *ImageImportCmd) Run(ctx context.Context) error {
	path, err := filepath.Abs(c.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClient, err)
	}

	if _, err := request(ctx, protocol.CmdImageImport, &protocol.ImageImportRequest{
		Path: path,
		Tag:  c.Tag,
	}); err != nil {
		return err
	}

	fmt.Println("imported", c.Path)
	return nil
}

// Represents the 'forged image destroy' command.
type ImageDestroyCmd struct {
	Tag string `arg:"" help:"Tag of the image to remove."`
}

// Executes the image destroy command.
func (c *ImageDestroyCmd) Run(ctx context.Context) error {
	if _, err := request(ctx, protocol.CmdImageDestroy, &protocol.ImageDestroyRequest{
		Tag: c.Tag,
	}); err != nil {
		return err
	}

	fmt.Println("destroyed", c.Tag)
	return nil
}
