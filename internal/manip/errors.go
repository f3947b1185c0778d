package manip

import (
	"fmt"

	"github.com/pkg/errors"

	"rig-poser/internal/models"
)

// ErrRootHandle is reported when a pivot is requested for a handle whose
// bone is the skeleton root. Configured handles are expected to sit below
// the root, so this points at a bad model profile.
var ErrRootHandle = errors.New("manip: handle bone has no parent")

// ConfigError means a model profile does not fit the loaded skeleton.
// It is fatal for the manipulation feature of that model.
type ConfigError struct {
	Model  models.ID
	Bone   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("manip: model %q bone %q: %s", e.Model, e.Bone, e.Reason)
}
