// Package manifest defines the image build specification.
//
// An [Image] declares everything needed to assemble a runnable container
// image: the base image reference, the working directory, copy rules that
// bring build-context files into the image, environment variables, a
// dependency install step, additional build commands, and the process
// entry point.
//
// Specifications are loaded from YAML manifests via [Load] or transcribed
// from a Dockerfile via [ParseDockerfile]; [Image.Dockerfile] renders the
// inverse transcription. [Image.Validate] checks a specification against a
// build context, in particular that the entry point references a file that
// will be present in the copied source tree at container start.
//
// Example usage:
//
//	img, err := manifest.Load("forged.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := img.Validate("."); err != nil {
//	    return err
//	}
//	fmt.Print(img.Dockerfile())
package manifest
