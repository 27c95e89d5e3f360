package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/containerd/v2/core/images/archive"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (

	// Snapshotter used for container filesystems. fuse-overlayfs provides
	// overlay semantics without requiring root privileges (no mount(2)),
	// allowing forged to run as a regular user.
	snapshotter = "fuse-overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"

	// Filename of the OCI archive written by ExportImage.
	exportFilename = "image.tar"
)

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client *containerd.Client // Containerd client for managing containers and images.
}

// Creates a runtime connected to the containerd socket at the given address.
//
// The namespace scopes all containerd operations to a single tenant. The
// runtime must be closed when no longer needed.
func New(address, namespace string) (*Runtime, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return &Runtime{client: client}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Pulls an image from its registry and unpacks it for the host platform.
//
// The reference is normalized first (bare names gain the docker.io/library
// prefix and a latest tag), so "python:3.9-slim" resolves the way an engine
// would. Returns the normalized reference under which the image is stored.
// A pull that cannot reach the registry fails here and is not retried.
func (rt *Runtime) PullImage(ctx context.Context, ref string) (string, error) {
	normalized, err := normalizeRef(ref)
	if err != nil {
		return "", err
	}

	slog.Info("pulling image", "ref", normalized)

	_, err = rt.client.Pull(ctx, normalized,
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(snapshotter),
		containerd.WithPlatform(hostPlatform()),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPull, normalized, err)
	}

	return normalized, nil
}

// Starts a build container from an image already present in the namespace.
//
// The container runs a long-lived task (sleep infinity) so that subsequent
// Exec calls have a running process to attach to. Any stale container with
// the same ID from a previous build is removed first.
func (rt *Runtime) StartContainer(ctx context.Context, ref, id string) (*Container, error) {
	c := &Container{
		client:   rt.client,
		id:       id,
		platform: hostPlatform(),
	}

	c.remove(ctx)

	image, err := rt.resolveImage(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	ctr, err := c.create(ctx, image, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := c.startIdleTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("build container started", "id", id, "image", ref)

	return c, nil
}

// Runs an image's entry point to completion and returns its exit code.
//
// A container is created whose task is the image's own entry point process,
// with stdout and stderr streamed to the given writers. The call blocks
// until the process exits. The exit code comes back verbatim; a non-zero
// code is not an error here. The container and its snapshot are removed
// before returning.
func (rt *Runtime) RunImage(ctx context.Context, tag, id string, stdout, stderr io.Writer) (int, error) {
	c := &Container{
		client:   rt.client,
		id:       id,
		platform: hostPlatform(),
	}

	c.remove(ctx)

	image, err := rt.resolveImage(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	ctr, err := c.create(ctx, image, false)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	defer ctr.Delete(ctx, containerd.WithSnapshotCleanup)

	slog.Info("running container", "id", id, "image", tag)

	return c.runToCompletion(ctx, ctr, stdout, stderr)
}

// Imports an OCI archive, tags it under the given name, and unpacks it for
// the host platform. An empty tag keeps the name recorded in the archive.
func (rt *Runtime) ImportImage(ctx context.Context, path, tag string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	defer fh.Close()

	imported, err := rt.client.Import(ctx, fh)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	// Import yields one record per image in the archive's index. An archive
	// written by ExportImage always holds exactly one.
	if len(imported) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyArchive, path)
	} else if len(imported) > 1 {
		return fmt.Errorf("%w: %s", ErrMultipleImages, path)
	}

	if tag == "" {
		tag = imported[0].Name
	} else if imported[0].Name != tag {
		if err := setImage(ctx, rt.client, tag, imported[0].Target); err != nil {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
		_ = rt.client.ImageService().Delete(ctx, imported[0].Name)
	}

	image, err := rt.resolveImage(ctx, tag)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	if err := image.Unpack(ctx, snapshotter); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("image imported", "tag", tag)
	return nil
}

// Writes a tagged image to an OCI tar archive in the given directory and
// returns the archive path.
func (rt *Runtime) ExportImage(ctx context.Context, tag, dir string) (string, error) {
	path := filepath.Join(dir, exportFilename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	defer f.Close()

	p, err := platforms.Parse(hostPlatform())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	err = rt.client.Export(ctx, f,
		archive.WithImage(rt.client.ImageService(), tag),
		archive.WithPlatform(platforms.Only(p)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRuntime, tag, err)
	}

	slog.Info("image exported", "path", path)
	return path, nil
}

// Removes an image and all containers created from it.
//
// Containers are discovered by querying containerd for records whose image
// field matches the tag. Each container's task is killed before the
// container and its snapshot are deleted.
func (rt *Runtime) DestroyImage(ctx context.Context, tag string) error {
	ctrs, err := rt.client.Containers(ctx, fmt.Sprintf("image==%s", tag))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
	}

	if err := rt.client.ImageService().Delete(ctx, tag); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("image destroyed", "tag", tag)
	return nil
}

// Looks up an image record and wraps it for the host platform.
func (rt *Runtime) resolveImage(ctx context.Context, name string) (containerd.Image, error) {
	p, err := platforms.Parse(hostPlatform())
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, name)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Creates or replaces an image record pointing at the given target.
func setImage(ctx context.Context, client *containerd.Client, name string, target ocispec.Descriptor) error {
	is := client.ImageService()

	img := images.Image{
		Name:   name,
		Target: target,
	}

	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}

	return nil
}

// Expands an image reference to its fully qualified form with a tag.
func normalizeRef(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("%w: reference %q: %w", ErrRuntime, ref, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// Returns the OCI platform string for the host architecture.
func hostPlatform() string {
	return "linux/" + goruntime.GOARCH
}
