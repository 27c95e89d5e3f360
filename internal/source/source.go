package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Clones a git repository into a temporary directory for use as a build
// context.
//
// The clone is shallow; build contexts only need the working tree. The
// returned cleanup removes the directory and must be called once the build
// is done with it.
func Clone(ctx context.Context, url string) (dir string, cleanup func(), err error) {
	if strings.TrimSpace(url) == "" {
		return "", nil, fmt.Errorf("%w: empty repository URL", ErrClone)
	}

	dir, err = os.MkdirTemp("", "forged-context-*")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrClone, err)
	}

	slog.Info("cloning build context", "url", url, "dir", dir)

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("%w: %s: %w", ErrClone, url, err)
	}

	return dir, func() { os.RemoveAll(dir) }, nil
}
