package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
)

// Interpreters whose first non-flag argument names the script file the
// entry point runs.
var interpreters = map[string]bool{
	"python":  true,
	"python3": true,
	"node":    true,
	"ruby":    true,
	"sh":      true,
	"bash":    true,
}

// Checks the specification against a build context directory.
//
// The base image reference must parse, every copy source must exist inside
// the context, and the entry point must reference a file that will be
// present in the copied source tree when a container starts.
func (img *Image) Validate(contextDir string) error {
	if _, err := reference.ParseNormalizedNamed(img.From); err != nil {
		return fmt.Errorf("%w: base image %q: %w", ErrInvalid, img.From, err)
	}

	if len(img.Command) == 0 {
		return fmt.Errorf("%w: no entry point command", ErrInvalid)
	}

	for _, rule := range img.Copy {
		if err := checkCopySource(contextDir, rule.Src); err != nil {
			return err
		}
	}

	return img.checkEntryFile(contextDir)
}

// Verifies that a copy source stays inside the build context and exists.
func checkCopySource(contextDir, src string) error {
	if filepath.IsAbs(src) {
		return fmt.Errorf("%w: copy source %q must be relative to the build context", ErrInvalid, src)
	}

	clean := filepath.Clean(src)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: copy source %q escapes the build context", ErrInvalid, src)
	}

	if _, err := os.Stat(filepath.Join(contextDir, clean)); err != nil {
		return fmt.Errorf("%w: copy source %q: %w", ErrInvalid, src, err)
	}

	return nil
}

// Verifies that the entry point's script file will exist in the image.
//
// When the entry point is "<interpreter> <script>", the script must map back
// through a copy rule to a file in the build context. Entry points that do
// not name a recognizable script (bare binaries, absolute paths outside the
// working directory) are accepted as-is; whether they exist is a property of
// the base image, not the context.
func (img *Image) checkEntryFile(contextDir string) error {
	script := img.entryScript()
	if script == "" {
		return nil
	}

	src, ok := img.resolveInContext(script)
	if !ok {
		return nil
	}

	if _, err := os.Stat(filepath.Join(contextDir, src)); err != nil {
		return fmt.Errorf("%w: entry point references %q, which is missing from the build context", ErrInvalid, script)
	}

	return nil
}

// Returns the script file the entry point runs, relative to the working
// directory, or "" when the entry point does not name one.
func (img *Image) entryScript() string {
	if len(img.Command) < 2 || !interpreters[path.Base(img.Command[0])] {
		return ""
	}
	for _, arg := range img.Command[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return arg
	}
	return ""
}

// Maps a path inside the image back to a build-context path via the copy
// rules. Returns false when no rule covers the path.
func (img *Image) resolveInContext(p string) (string, bool) {
	// Resolve the path to its in-image location relative to the workdir.
	target := p
	if path.IsAbs(target) {
		rel, err := filepath.Rel(img.Workdir, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", false
		}
		target = rel
	}
	target = path.Clean(target)

	for _, rule := range img.Copy {
		dest := path.Clean(rule.Dest)
		src := filepath.Clean(rule.Src)

		switch {
		case dest == "." || dest == "./":
			// Context copied into the workdir: the target maps directly.
			if src == "." {
				return target, true
			}
			// A single file copied to the workdir keeps its base name.
			if path.Base(src) == target {
				return src, true
			}
		case dest == target:
			return src, true
		case strings.HasPrefix(target, dest+"/"):
			return filepath.Join(src, strings.TrimPrefix(target, dest+"/")), true
		}
	}

	return "", false
}
