package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ManifestEntry represents one replayed script in the batch index.
type ManifestEntry struct {
	Script    string `json:"script"`
	Model     string `json:"model"`
	Session   string `json:"session,omitempty"`
	Frames    int    `json:"frames"`
	Pinches   int    `json:"pinches"`
	Rotations int    `json:"rotations"`
	Failures  int    `json:"failures"`
	Error     string `json:"error,omitempty"`
}

// WriteManifest writes the batch index to path. Session directories are
// stored relative to the index.
func WriteManifest(path string, results []Result) error {
	base := filepath.Dir(path)
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Script:    r.Script,
			Model:     string(r.Model),
			Frames:    r.Frames,
			Pinches:   r.Pinches,
			Rotations: r.Rotations,
			Failures:  r.Failures,
			Error:     r.Error,
		}
		if r.Dir != "" {
			if rel, err := filepath.Rel(base, r.Dir); err == nil {
				entries[i].Session = filepath.ToSlash(rel)
			} else {
				entries[i].Session = r.Dir
			}
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: manifest")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "batch: manifest")
}
