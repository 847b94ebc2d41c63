// Package targets resolves which accounts impersonate a channel.
package targets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sentinel-core/internal/core/domain"
	"github.com/custodia-labs/sentinel-core/internal/core/ports/driven"
)

// Ensure FileResolver implements the interface.
var _ driven.TargetResolver = (*FileResolver)(nil)

// FileResolver reads target lists from per-channel files in a directory.
// A channel's list lives in "Active-<channel>.txt" holding a single
// "name=handle1,handle2,..." line; order in the file is the action order.
type FileResolver struct {
	dir string
}

// NewFileResolver creates a resolver rooted at the given directory.
func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{dir: dir}
}

// Resolve returns the ordered target handles for a channel.
// Returns domain.ErrNotFound if the channel has no target list.
func (r *FileResolver) Resolve(ctx context.Context, channel string) ([]string, error) {
	// The channel names a file; path separators would escape the directory.
	if channel == "" || strings.ContainsAny(channel, `/\`) || channel != filepath.Base(channel) {
		return nil, fmt.Errorf("%w: invalid channel %q", domain.ErrInvalidInput, channel)
	}

	path := filepath.Join(r.dir, "Active-"+channel+".txt")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: no target list for channel %q", domain.ErrNotFound, channel)
	}
	if err != nil {
		return nil, fmt.Errorf("read target list: %w", err)
	}

	return parseTargetLine(string(data)), nil
}

// parseTargetLine extracts handles from the first non-empty line, taking
// everything after the first "=" as a comma-separated list.
func parseTargetLine(content string) []string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, list, found := strings.Cut(line, "="); found {
			line = list
		}
		var handles []string
		for _, h := range strings.Split(line, ",") {
			h = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@"))
			if h != "" {
				handles = append(handles, h)
			}
		}
		return handles
	}
	return nil
}
