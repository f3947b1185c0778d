package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// NoParent marks the root bone.
const NoParent = -1

// MaxDepth bounds every parent walk. Deeper chains are treated as corrupt.
const MaxDepth = 256

// Bone is one node of the skeleton arena. Parent and Children are indices
// into Skeleton.Bones.
type Bone struct {
	Name     string
	Parent   int
	Children []int

	// BindPosition is the translation relative to the parent bone.
	BindPosition mgl64.Vec3
	// Rotation is the local rotation relative to the parent bone.
	Rotation mgl64.Quat
}

// Skeleton is a tree of bones stored as an arena indexed by bone id.
type Skeleton struct {
	Bones []Bone

	root   int
	order  []int // parents before children
	byName map[string]int
}

// New validates the parent links of bones and builds the lookup tables.
// Children lists are rebuilt from the parent links, in bone id order.
func New(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		Bones:  bones,
		root:   NoParent,
		byName: make(map[string]int, len(bones)),
	}
	if len(bones) == 0 {
		return nil, errors.New("skeleton: no bones")
	}

	for i := range s.Bones {
		s.Bones[i].Children = nil
		if s.Bones[i].Rotation == (mgl64.Quat{}) {
			s.Bones[i].Rotation = mgl64.QuatIdent()
		}
	}
	for i, b := range s.Bones {
		if b.Parent == NoParent {
			if s.root != NoParent {
				return nil, errors.Errorf("skeleton: bones %q and %q are both roots", s.Bones[s.root].Name, b.Name)
			}
			s.root = i
			continue
		}
		if b.Parent < 0 || b.Parent >= len(bones) || b.Parent == i {
			return nil, errors.Errorf("skeleton: bone %q has invalid parent %d", b.Name, b.Parent)
		}
		s.Bones[b.Parent].Children = append(s.Bones[b.Parent].Children, i)
	}
	if s.root == NoParent {
		return nil, errors.New("skeleton: no root bone")
	}

	for i, b := range s.Bones {
		if b.Name == "" {
			continue
		}
		if _, dup := s.byName[b.Name]; !dup {
			s.byName[b.Name] = i
		}
	}

	// Breadth-first from the root. Bones not reached sit on a cycle.
	s.order = make([]int, 0, len(bones))
	s.order = append(s.order, s.root)
	for head := 0; head < len(s.order); head++ {
		s.order = append(s.order, s.Bones[s.order[head]].Children...)
	}
	if len(s.order) != len(bones) {
		return nil, errors.Errorf("skeleton: %d bones unreachable from root %q (cycle)", len(bones)-len(s.order), s.Bones[s.root].Name)
	}

	return s, nil
}

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.Bones) }

// Root returns the id of the root bone.
func (s *Skeleton) Root() int { return s.root }

// BoneByName returns the id of the first bone with the given name.
func (s *Skeleton) BoneByName(name string) (int, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Parent returns the parent id of bone id, or NoParent.
func (s *Skeleton) Parent(id int) int {
	if id < 0 || id >= len(s.Bones) {
		return NoParent
	}
	return s.Bones[id].Parent
}

// LocalRotation returns the local rotation of bone id.
func (s *Skeleton) LocalRotation(id int) mgl64.Quat {
	return s.Bones[id].Rotation
}

// SetLocalRotation replaces the local rotation of bone id.
func (s *Skeleton) SetLocalRotation(id int, q mgl64.Quat) {
	s.Bones[id].Rotation = q
}

// Ancestors returns the parent chain of bone id, nearest parent first.
func (s *Skeleton) Ancestors(id int) ([]int, error) {
	var chain []int
	for p := s.Parent(id); p != NoParent; p = s.Parent(p) {
		if len(chain) >= MaxDepth {
			return nil, errors.Errorf("skeleton: bone %d deeper than %d", id, MaxDepth)
		}
		chain = append(chain, p)
	}
	return chain, nil
}

// DeepestFirstChild follows first-child links from id down to a leaf.
func (s *Skeleton) DeepestFirstChild(id int) int {
	for depth := 0; depth < MaxDepth && len(s.Bones[id].Children) > 0; depth++ {
		id = s.Bones[id].Children[0]
	}
	return id
}

// LocalMatrix returns translate(BindPosition) × rotate(Rotation) for bone id.
func (s *Skeleton) LocalMatrix(id int) mgl64.Mat4 {
	b := &s.Bones[id]
	t := mgl64.Translate3D(b.BindPosition[0], b.BindPosition[1], b.BindPosition[2])
	return t.Mul4(b.Rotation.Normalize().Mat4())
}

// BuildWorldMatrices computes the model-space transform of each bone for the
// current local rotations. Returns a slice indexed by bone id.
func (s *Skeleton) BuildWorldMatrices() []mgl64.Mat4 {
	worlds := make([]mgl64.Mat4, len(s.Bones))
	for _, i := range s.order {
		local := s.LocalMatrix(i)
		if p := s.Bones[i].Parent; p != NoParent {
			worlds[i] = worlds[p].Mul4(local)
		} else {
			worlds[i] = local
		}
	}
	return worlds
}
