package manifest

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (

	// Package manager assumed when an install step names no manager.
	DefaultManager = "pip"

	// Working directory assumed when the manifest declares none.
	DefaultWorkdir = "/app"
)

// Describes how to assemble a runnable container image: the base image to
// start from, the files to copy in from the build context, the dependencies
// to install, and the process to start when a container runs.
type Image struct {
	From    string            `yaml:"from"`              // Base image reference (name + tag).
	Workdir string            `yaml:"workdir,omitempty"` // Working directory inside the image.
	Copy    []CopyRule        `yaml:"copy,omitempty"`    // Files to copy from the build context.
	Env     map[string]string `yaml:"env,omitempty"`     // Environment variables baked into the image.
	Install Install           `yaml:"install,omitempty"` // Dependency install step.
	Run     []string          `yaml:"run,omitempty"`     // Additional build commands, in order.
	Command []string          `yaml:"command"`           // Process entry point (command + args).
}

// A single copy rule. Src is resolved relative to the build context, Dest
// relative to the working directory.
type CopyRule struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest"`
}

// The dependency install step: a package manager and the packages it
// installs into the image's runtime environment.
type Install struct {
	Manager  string   `yaml:"manager,omitempty"`
	Packages []string `yaml:"packages,omitempty"`
}

// Reports whether the install step names any packages.
func (i Install) Empty() bool {
	return len(i.Packages) == 0
}

// Returns the shell command that performs the install step.
func (i Install) Command() string {
	cmd := i.Manager
	if cmd == "" {
		cmd = DefaultManager
	}
	cmd += " install"
	for _, pkg := range i.Packages {
		cmd += " " + pkg
	}
	return cmd
}

// Reads a YAML manifest from path and returns the image specification with
// defaults applied.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	var img Image
	if err := yaml.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, path, err)
	}

	img.applyDefaults()
	return &img, nil
}

// Fills in defaulted fields: the working directory, the install step's
// package manager, and a copy-everything rule when no copy rules are given.
func (img *Image) applyDefaults() {
	if img.Workdir == "" {
		img.Workdir = DefaultWorkdir
	}
	if !img.Install.Empty() && img.Install.Manager == "" {
		img.Install.Manager = DefaultManager
	}
	if len(img.Copy) == 0 {
		img.Copy = []CopyRule{{Src: ".", Dest: "."}}
	}
}

// Formats the environment as a sorted list of "key=value" strings suitable
// for an OCI image config.
func (img *Image) Environ() []string {
	return environ(img.Env)
}

// Formats an environment map as sorted "key=value" strings. Sorting keeps
// rendered output and image configs deterministic.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
