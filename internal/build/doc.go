// Package build executes image build specifications against the container
// runtime.
//
// A build pulls the specification's base image, starts a build container,
// and runs the specification's steps in order: create the working
// directory, copy build-context files in as tar streams, run the
// dependency install step, then any further build commands. The container
// is then committed as a new image tagged for running, and optionally
// exported as an OCI archive.
//
// The pipeline is strictly sequential with no retries or recovery. The
// first failing step aborts the build and its error, wrapped with the
// step's position, propagates to the caller.
//
// Example usage:
//
//	result, err := build.Run(ctx, rt, build.Options{
//	    Image:   img,
//	    Tag:     "app:latest",
//	    Context: ".",
//	    Output:  "dist",
//	})
//	if err != nil {
//	    return err
//	}
package build
