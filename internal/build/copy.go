package build

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgehq/forged/internal/manifest"
	"github.com/forgehq/forged/internal/runtime"
)

// Executes a copy rule, streaming files from the build context into the
// container.
//
// Directory sources copy their contents into the destination directory,
// matching COPY semantics. File sources copy to the destination path, or
// into it when the destination names a directory.
func (p *pipeline) copyIntoContainer(ctx context.Context, ctr *runtime.Container, rule manifest.CopyRule) error {
	src := filepath.Join(p.context, filepath.Clean(rule.Src))

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	destDir, name, err := resolveCopy(rule, p.img.Workdir, info.IsDir())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	if err := ctr.MkdirAll(ctx, destDir); err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)
		var writeErr error

		if info.IsDir() {
			writeErr = writeDirToTar(tw, src)
		} else {
			writeErr = writeFileToTar(tw, src, name)
		}

		tw.Close()
		pw.CloseWithError(writeErr)
	}()

	if err := ctr.CopyTo(ctx, pr, destDir); err != nil {
		return fmt.Errorf("%w: %w", ErrCopy, err)
	}

	return nil
}

// Resolves a copy rule to the in-container extraction directory and, for
// file sources, the archived file name.
//
// Relative destinations are joined with the working directory. A
// destination of "." or one ending in "/" is a directory: directory
// sources extract their contents there, file sources keep their base name.
// Any other destination renames a file source.
func resolveCopy(rule manifest.CopyRule, workdir string, srcIsDir bool) (destDir, name string, err error) {
	dest := rule.Dest
	if dest == "" {
		return "", "", fmt.Errorf("copy rule for %q has no destination", rule.Src)
	}

	intoDir := dest == "." || strings.HasSuffix(dest, "/")

	if !filepath.IsAbs(dest) {
		if workdir == "" {
			return "", "", fmt.Errorf("relative destination %q requires a working directory", dest)
		}
		dest = filepath.Join(workdir, dest)
	}
	dest = filepath.Clean(dest)

	if srcIsDir || intoDir {
		name = filepath.Base(rule.Src)
		if srcIsDir {
			name = ""
		}
		return dest, name, nil
	}

	return filepath.Dir(dest), filepath.Base(dest), nil
}

// Writes a directory's contents to a tar writer, rooted at the archive
// top level.
func writeDirToTar(tw *tar.Writer, hostDir string) error {
	return filepath.WalkDir(hostDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(hostDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		return writeTarEntry(tw, path, filepath.ToSlash(relPath), d)
	})
}

// Writes a single file to a tar writer under the given archive name.
func writeFileToTar(tw *tar.Writer, hostPath, name string) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Writes a single file or directory entry to a tar writer.
func writeTarEntry(tw *tar.Writer, hostPath, archivePath string, d os.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = archivePath

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(hostPath)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	}

	return nil
}
