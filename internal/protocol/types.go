package protocol

import "github.com/forgehq/forged/internal/manifest"

// Request payload for [CmdBuild].
type BuildRequest struct {
	Image   *manifest.Image `json:"image"`            // The image build specification.
	Context string          `json:"context"`          // Build context directory on the daemon host.
	Tag     string          `json:"tag"`              // Tag for the built image.
	Output  string          `json:"output,omitempty"` // Directory for the exported archive. Empty skips export.
}

// Result payload for a successful build.
type BuildResult struct {
	Tag    string `json:"tag"`
	Output string `json:"output,omitempty"`
}

// Request payload for [CmdRun].
type RunRequest struct {
	Tag string `json:"tag"`          // Image tag to run.
	ID  string `json:"id,omitempty"` // Container ID. Empty derives one from the tag.
}

// Result payload for a completed run. The exit code is the container
// process's own, propagated verbatim.
type RunResult struct {
	ExitCode int `json:"exit_code"`
}

// Request payload for [CmdImageImport].
type ImageImportRequest struct {
	Path string `json:"path"` // OCI archive path on the daemon host.
	Tag  string `json:"tag"`  // Tag for the imported image.
}

// Request payload for [CmdImageDestroy].
type ImageDestroyRequest struct {
	Tag string `json:"tag"`
}

// Result payload for [CmdStatus].
type StatusResult struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Pid     int    `json:"pid"`
	Uptime  string `json:"uptime"`
	Builds  int    `json:"builds"`
}

// Result payload carried by [CmdError] responses.
type ErrorResult struct {
	Message string `json:"message"`
}
