// Package runtime manages containers backed by containerd.
//
// A [Runtime] connects to a containerd daemon and provides image and
// container operations. Base images are pulled from their registry by tag,
// unpacked for the host platform, and used to create containers with
// overlayfs snapshots.
//
// A [Container] serves one of two roles. Build containers run a long-lived
// idle task so commands can be executed and files streamed in while the
// filesystem accumulates changes; the result is committed as a new tagged
// image. Run containers execute an image's entry point to completion and
// report its exit code. Committed images can also be exported to and
// imported from OCI tar archives.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "forged")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ref, err := rt.PullImage(ctx, "python:3.9-slim")
//	if err != nil {
//	    return err
//	}
//
//	ctr, err := rt.StartContainer(ctx, ref, "build-1")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	if _, err := ctr.Exec(ctx, "/bin/sh", "pip install flask", nil, "/app"); err != nil {
//	    return err
//	}
//
//	if err := ctr.Commit(ctx, "app:latest", runtime.ImageConfig{
//	    Entrypoint: []string{"python", "main.py"},
//	    Workdir:    "/app",
//	}); err != nil {
//	    return err
//	}
//
//	code, err := rt.RunImage(ctx, "app:latest", "app-run", os.Stdout, os.Stderr)
package runtime
