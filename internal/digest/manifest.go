package digest

import (
	"fmt"
	"os"
	"strings"
)

// ManifestEntry is one artifact line in a batch manifest.
type ManifestEntry struct {
	Digest string
	Size   int64
	Path   string
}

// WriteManifest writes one line per artifact: digest, size, path,
// tab-separated. The file is created or truncated.
func WriteManifest(path string, entries []ManifestEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\t%d\t%s\n", e.Digest, e.Size, e.Path)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}
	return nil
}
