package cachefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marmos91/cloudnss/internal/logger"
	"github.com/marmos91/cloudnss/pkg/nss"
)

// Write materializes the given accounts as a cache file at path, sorted by
// uid (username breaks ties), and replaces any existing file atomically so
// concurrent readers always see either the old or the new file, never a
// partial one. Returns the number of records written.
//
// Records whose fields cannot be represented in the line format (embedded
// ':' or newline) are skipped with a warning rather than corrupting the
// file.
func Write(path string, accounts []nss.AccountRecord) (int, error) {
	sorted := make([]nss.AccountRecord, len(accounts))
	copy(sorted, accounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UID != sorted[j].UID {
			return sorted[i].UID < sorted[j].UID
		}
		return sorted[i].Username < sorted[j].Username
	})

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return 0, fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// Best-effort cleanup; a successful rename makes this a no-op.
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	written := 0
	for i := range sorted {
		line, ok := formatLine(&sorted[i])
		if !ok {
			logger.Warn("skipping unrepresentable account record",
				"username", sorted[i].Username, "uid", sorted[i].UID)
			continue
		}
		if _, err := tmp.WriteString(line + "\n"); err != nil {
			return 0, fmt.Errorf("write cache record: %w", err)
		}
		written++
	}

	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close cache file: %w", err)
	}
	// The cache must be world-readable: the host dispatcher reads it from
	// arbitrary user processes.
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return 0, fmt.Errorf("chmod cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("replace cache file: %w", err)
	}
	return written, nil
}

// formatLine renders one account as a passwd-format cache line.
func formatLine(rec *nss.AccountRecord) (string, bool) {
	fields := []string{
		rec.Username,
		"x",
		fmt.Sprintf("%d", rec.UID),
		fmt.Sprintf("%d", rec.GID),
		rec.Gecos,
		rec.HomeDir,
		rec.Shell,
	}
	for _, f := range fields {
		if strings.ContainsAny(f, ":\n") {
			return "", false
		}
	}
	return strings.Join(fields, ":"), true
}
