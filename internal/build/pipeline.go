package build

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forgehq/forged/internal/manifest"
	"github.com/forgehq/forged/internal/runtime"
)

// Shell used to run install and build commands inside the build container.
const defaultShell = "/bin/sh"

// Holds shared state while a specification is built.
type pipeline struct {
	rt      *runtime.Runtime // Container runtime for image and container operations.
	img     *manifest.Image  // The specification being built.
	tag     string           // Tag for the committed image.
	context string           // Build context directory.
	output  string           // Export directory, empty to skip export.
}

// Creates a new [pipeline] from the given options.
func newPipeline(rt *runtime.Runtime, opts Options) *pipeline {
	return &pipeline{
		rt:      rt,
		img:     opts.Image,
		tag:     opts.Tag,
		context: opts.Context,
		output:  opts.Output,
	}
}

// A single build step: a human-readable description and the action it
// performs against the build container.
type step struct {
	desc string
	run  func(ctx context.Context, ctr *runtime.Container) error
}

// Runs the build end-to-end: pull, execute steps, commit, export.
//
// The build container is destroyed when the pipeline finishes, whether or
// not it succeeded.
func (p *pipeline) run(ctx context.Context) (*Result, error) {
	ref, err := p.rt.PullImage(ctx, p.img.From)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	ctr, err := p.rt.StartContainer(ctx, ref, p.containerID())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}
	defer ctr.Destroy(ctx)

	steps := p.steps()
	for i, st := range steps {
		slog.Info(fmt.Sprintf("step %d/%d", i+1, len(steps)), "action", st.desc)
		if err := st.run(ctx, ctr); err != nil {
			return nil, fmt.Errorf("%w: step %d (%s): %w", ErrBuild, i+1, st.desc, err)
		}
	}

	if err := ctr.Stop(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	if err := ctr.Commit(ctx, p.tag, runtime.ImageConfig{
		Entrypoint: p.img.Command,
		Workdir:    p.img.Workdir,
		Env:        p.img.Environ(),
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	result := &Result{Tag: p.tag}

	if p.output != "" {
		path, err := p.rt.ExportImage(ctx, p.tag, p.output)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBuild, err)
		}
		result.Output = path
	}

	return result, nil
}

// Returns the build steps for the specification, in execution order:
// working directory, copy rules, the install step, then build commands.
func (p *pipeline) steps() []step {
	steps := []step{{
		desc: "workdir " + p.img.Workdir,
		run: func(ctx context.Context, ctr *runtime.Container) error {
			return ctr.MkdirAll(ctx, p.img.Workdir)
		},
	}}

	for _, rule := range p.img.Copy {
		steps = append(steps, step{
			desc: fmt.Sprintf("copy %s %s", rule.Src, rule.Dest),
			run: func(ctx context.Context, ctr *runtime.Container) error {
				return p.copyIntoContainer(ctx, ctr, rule)
			},
		})
	}

	if !p.img.Install.Empty() {
		steps = append(steps, p.commandStep(p.img.Install.Command()))
	}

	for _, cmd := range p.img.Run {
		steps = append(steps, p.commandStep(cmd))
	}

	return steps
}

// Returns a step that runs a shell command in the working directory with
// the specification's environment.
func (p *pipeline) commandStep(cmd string) step {
	return step{
		desc: "run " + cmd,
		run: func(ctx context.Context, ctr *runtime.Container) error {
			result, err := ctr.Exec(ctx, defaultShell, cmd, p.img.Environ(), p.img.Workdir)
			if err != nil {
				return err
			}
			if result.ExitCode != 0 {
				return fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, result.ExitCode, result.Stderr)
			}
			return nil
		},
	}
}

// Returns a unique build container ID scoped to the tag.
func (p *pipeline) containerID() string {
	return "forged-build-" + TagSlug(p.tag)
}

// Converts an image tag to a container-ID-safe slug (e.g., "app:latest"
// becomes "app-latest").
func TagSlug(tag string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '@':
			return '-'
		}
		return r
	}, tag)
}
