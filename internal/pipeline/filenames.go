package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// splitFilename returns base with a zero-padded (minimum 3 digits)
// split counter inserted before the extension: name.ext, 1 -> name_001.ext.
// Counter 0 returns base unchanged -- the first file of a stream is never
// suffixed.
func splitFilename(base string, counter int) string {
	if counter == 0 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%03d%s", stem, counter, ext)
}
