package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/forgehq/forged/internal/manifest"
	"github.com/forgehq/forged/internal/paths"
	"github.com/forgehq/forged/internal/runtime"
)

// Controls a build.
type Options struct {
	Image   *manifest.Image // The image build specification.
	Tag     string          // Tag for the built image.
	Context string          // Build context directory, root for copy sources.
	Output  string          // Directory for the exported archive. Empty skips export.
}

// Returned after a successful build.
type Result struct {
	Tag    string // Tag the built image was committed under.
	Output string // Path of the exported archive, if one was written.
}

// Executes an image build specification against the container runtime.
//
// The pipeline is strictly sequential and non-branching: validate, pull the
// base image, start a build container, create the working directory, copy
// the context in, run the install step and build commands, commit the
// result under the tag, and export the archive when an output directory is
// given. The first failing step aborts the build; there are no retries and
// no partial results.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if opts.Tag == "" {
		return nil, fmt.Errorf("%w: no tag given", ErrBuild)
	}
	if opts.Image == nil {
		return nil, fmt.Errorf("%w: no image specification given", ErrBuild)
	}

	if err := opts.Image.Validate(opts.Context); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	slog.Info("building image",
		"tag", opts.Tag,
		"base", opts.Image.From,
		"context", opts.Context,
	)

	if opts.Output != "" {
		if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFileSystemOperation, err)
		}
	}

	return newPipeline(rt, opts).run(ctx)
}
