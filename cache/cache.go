// Package cache holds the dataset cache shared by dashboard requests. Entries
// are keyed by source path plus modification time, so a rewritten file is a
// miss even before anyone calls Invalidate.
package cache

import (
	"fmt"
	"time"

	"pos-insights/models"
)

// Key identifies one loaded version of a dataset file.
type Key struct {
	Path    string
	ModTime time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d", k.Path, k.ModTime.UnixNano())
}

// DatasetCache is safe for concurrent use.
type DatasetCache interface {
	Get(key Key) (*models.Dataset, bool)
	Put(key Key, ds *models.Dataset)
	// Invalidate drops the entry for path, or every entry when path is "".
	Invalidate(path string)
}
