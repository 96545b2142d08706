package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bindery/internal/textutil"
)

// Batch is a per-run workspace rooted under the staging directory. All
// intermediate files produced during a run live inside it so a single
// RemoveAll reclaims everything.
type Batch struct {
	ID  string
	Dir string
}

// NewBatch creates a fresh batch directory under stagingRoot and returns its
// handle. The directory name embeds a random identifier so concurrent or
// interrupted runs never collide.
func NewBatch(stagingRoot string) (*Batch, error) {
	stagingRoot = strings.TrimSpace(stagingRoot)
	if stagingRoot == "" {
		return nil, fmt.Errorf("staging root not configured")
	}

	id := uuid.NewString()
	dir := filepath.Join(stagingRoot, "batch-"+id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch directory: %w", err)
	}

	return &Batch{ID: id, Dir: dir}, nil
}

// ItemDir returns the work directory for a single comic within the batch.
// The name embeds a sanitized title token so leftover staging is readable in
// the check command's report. The directory is not created; comic
// construction owns that.
func (b *Batch) ItemDir(id int, title string) string {
	return filepath.Join(b.Dir, fmt.Sprintf("%03d-%s", id, textutil.SanitizeToken(title)))
}

// Remove deletes the batch directory and everything beneath it.
func (b *Batch) Remove() error {
	if b == nil || b.Dir == "" {
		return nil
	}
	return os.RemoveAll(b.Dir)
}
