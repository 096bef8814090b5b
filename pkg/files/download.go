package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fodqa/fod-regression/pkg/testerr"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

// WaitForFile polls dir until a finished file matching the glob pattern
// appears and returns its path. Partial chrome downloads are ignored.
func WaitForFile(ctx context.Context, dir, pattern string, timeout time.Duration) (string, error) {
	found, err := waitutil.WaitFor(ctx, waitutil.DoesNotEqual, "", func() (string, error) {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		for _, m := range matches {
			if strings.HasSuffix(m, ".crdownload") {
				continue
			}
			if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
				return m, nil
			}
		}
		return "", nil
	}, timeout, true, waitutil.WithInterval(250*time.Millisecond))
	if err != nil {
		return "", testerr.FileDownload(pattern, err)
	}
	return found, nil
}

// CleanDir removes everything inside dir, creating it when missing.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clean %s: %w", dir, err)
		}
	}
	return nil
}
