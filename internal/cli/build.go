package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgehq/forged/internal/manifest"
	"github.com/forgehq/forged/internal/paths"
	"github.com/forgehq/forged/internal/protocol"
	"github.com/forgehq/forged/internal/source"
)

// Descriptor filenames probed, in order, when no file is given explicitly.
var descriptorNames = []string{"forged.yaml", "forged.yml", "Dockerfile"}

// Represents the 'forged build' command.
type BuildCmd struct {
	Tag     string `arg:"" help:"Tag for the built image (e.g. myapp:latest)."`
	File    string `short:"f" help:"Path to the image descriptor. Defaults to forged.yaml or Dockerfile in the context." placeholder:"PATH"`
	Context string `short:"c" default:"." help:"Build context directory." placeholder:"DIR"`
	Repo    string `help:"Clone a git repository and use it as the build context." placeholder:"URL"`
	Output  string `short:"o" help:"Directory to export the image archive into." placeholder:"DIR"`
	Export  bool   `short:"e" help:"Export the image archive to the default image directory."`
}

// Executes the build command.
//
// Loads the descriptor client-side so syntax errors surface before the
// daemon is contacted, then sends the parsed descriptor and the context
// path to the daemon.
func (c *BuildCmd) Run(ctx context.Context) error {
	contextDir := c.Context

	if c.Repo != "" {
		dir, cleanup, err := source.Clone(ctx, c.Repo)
		if err != nil {
			return err
		}
		defer cleanup()
		contextDir = dir
	}

	contextDir, err := filepath.Abs(contextDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClient, err)
	}

	img, err := loadDescriptor(c.File, contextDir)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" && c.Export {
		output = paths.Images()
	}
	if output != "" {
		if output, err = filepath.Abs(output); err != nil {
			return fmt.Errorf("%w: %w", ErrClient, err)
		}
	}

	slog.Info("building image", "tag", c.Tag, "context", contextDir)

	result, err := request(ctx, protocol.CmdBuild, &protocol.BuildRequest{
		Image:   img,
		Context: contextDir,
		Tag:     c.Tag,
		Output:  output,
	})
	if err != nil {
		return err
	}

	built, err := protocol.DecodePayload[protocol.BuildResult](result)
	if err != nil {
		return err
	}

	fmt.Println(built.Tag)
	if built.Output != "" {
		slog.Info("image exported", "path", built.Output)
	}
	return nil
}

// Locates and parses the image descriptor for a build context.
//
// An explicit path wins. Otherwise the context directory is probed for
// the well-known descriptor filenames. Files named Dockerfile are parsed
// as Dockerfiles; everything else is parsed as YAML.
func loadDescriptor(path, contextDir string) (*manifest.Image, error) {
	if path == "" {
		for _, name := range descriptorNames {
			candidate := filepath.Join(contextDir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil, fmt.Errorf("%w: no descriptor found in %s (looked for %s)",
				ErrClient, contextDir, strings.Join(descriptorNames, ", "))
		}
	}

	if isDockerfile(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", manifest.ErrRead, err)
		}
		defer f.Close()
		return manifest.ParseDockerfile(f)
	}
	return manifest.Load(path)
}

// Whether a descriptor path should be parsed as a Dockerfile rather than
// YAML, judged by filename convention.
func isDockerfile(path string) bool {
	base := filepath.Base(path)
	return base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.")
}
