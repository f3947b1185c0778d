// Package models holds the per-character manipulation profiles: which bones
// carry handles and whether their rotation is clamped to a single axis.
package models

import (
	_ "embed"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultTable []byte

// ErrUnknownModel is returned when a model id has no profile.
var ErrUnknownModel = errors.New("models: unknown model")

// ID names a character model, e.g. "miku".
type ID string

// Constraint limits a bone to a twist about Axis within [MinDeg, MaxDeg].
type Constraint struct {
	Axis   [3]float64 `yaml:"axis"`
	MinDeg float64    `yaml:"min_deg"`
	MaxDeg float64    `yaml:"max_deg"`
}

// AxisVec returns the clamp axis as a vector.
func (c Constraint) AxisVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Axis)
}

// Profile is the manipulation setup of one model.
type Profile struct {
	ID         ID          `yaml:"-"`
	Bones      []string    `yaml:"bones"`
	Constraint *Constraint `yaml:"constraint,omitempty"`
}

// Table is an immutable set of profiles keyed by model id.
// Build it once with Default or Load and share it by pointer.
type Table struct {
	profiles map[ID]Profile
}

// Default returns the table compiled into the binary.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a YAML profile table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "models: read %s", path)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "models: %s", path)
	}
	return t, nil
}

// Parse decodes a YAML profile table.
func Parse(data []byte) (*Table, error) {
	var raw map[string]Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "models: parse")
	}

	t := &Table{profiles: make(map[ID]Profile, len(raw))}
	for name, p := range raw {
		if len(p.Bones) == 0 {
			return nil, errors.Errorf("models: %q lists no bones", name)
		}
		if c := p.Constraint; c != nil {
			if c.MinDeg > c.MaxDeg {
				return nil, errors.Errorf("models: %q constraint min %v > max %v", name, c.MinDeg, c.MaxDeg)
			}
			if c.AxisVec().Len() == 0 {
				return nil, errors.Errorf("models: %q constraint has zero axis", name)
			}
		}
		p.ID = ID(name)
		p.Bones = append([]string(nil), p.Bones...)
		t.profiles[p.ID] = p
	}
	return t, nil
}

// Profile returns the profile for id. The returned value is a copy.
func (t *Table) Profile(id ID) (Profile, error) {
	p, ok := t.profiles[id]
	if !ok {
		return Profile{}, errors.Wrapf(ErrUnknownModel, "%q", id)
	}
	p.Bones = append([]string(nil), p.Bones...)
	if p.Constraint != nil {
		c := *p.Constraint
		p.Constraint = &c
	}
	return p, nil
}

// IDs returns all model ids in sorted order.
func (t *Table) IDs() []ID {
	ids := make([]ID, 0, len(t.profiles))
	for id := range t.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
