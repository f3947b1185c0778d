package rigio

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"rig-poser/internal/models"
	"rig-poser/internal/skeleton"
)

// Demo rig proportions, in world units.
const (
	demoTorso   = 4.0
	demoSegment = 10.0
	demoWidth   = 1.5
)

// CenterBone is the root bone of every demo rig.
const CenterBone = "center"

// Open loads the rig at path, or builds the demo rig for p when path is empty.
func Open(path string, p models.Profile) (*skeleton.Model, error) {
	if path == "" {
		return Demo(p)
	}
	return Load(path)
}

// Demo builds a star-shaped rig for p: a torso bone with one two-segment
// limb per handle bone, spread evenly in the XY plane. Each limb is named
// after the handle bone and its tip bone gets an "_end" suffix.
func Demo(p models.Profile) (*skeleton.Model, error) {
	if len(p.Bones) == 0 {
		return nil, errors.Errorf("rigio: profile %q has no bones", p.ID)
	}

	bones := []skeleton.Bone{{Name: CenterBone, Parent: skeleton.NoParent}}
	var verts []mgl64.Vec3
	var infs [][4]skeleton.Influence
	add := func(v mgl64.Vec3, inf ...skeleton.Influence) {
		var slot [4]skeleton.Influence
		copy(slot[:], inf)
		verts = append(verts, v)
		infs = append(infs, slot)
	}

	// Torso slab, lifted off the origin so its centroid is never zero.
	for k := 0; k < 8; k++ {
		a := float64(k) * math.Pi / 4
		add(mgl64.Vec3{demoTorso * math.Cos(a), demoTorso * math.Sin(a), 1}, skeleton.Influence{Bone: 0, Weight: 1})
	}

	n := len(p.Bones)
	for i, name := range p.Bones {
		a := math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		dir := mgl64.Vec3{math.Cos(a), math.Sin(a), 0}
		side := mgl64.Vec3{-dir[1], dir[0], 0}.Mul(demoWidth)

		limb := len(bones)
		bones = append(bones,
			skeleton.Bone{Name: name, Parent: 0, BindPosition: dir.Mul(demoTorso)},
			skeleton.Bone{Name: name + "_end", Parent: limb, BindPosition: dir.Mul(demoSegment)},
		)

		start := dir.Mul(demoTorso)
		for _, t := range []float64{2, 5, 8} {
			c := start.Add(dir.Mul(t))
			add(c.Add(side), skeleton.Influence{Bone: limb, Weight: 1})
			add(c.Sub(side), skeleton.Influence{Bone: limb, Weight: 1})
		}
		add(start.Add(dir.Mul(demoSegment)),
			skeleton.Influence{Bone: limb, Weight: 0.5},
			skeleton.Influence{Bone: limb + 1, Weight: 0.5})
		for _, t := range []float64{12, 15, 18} {
			c := start.Add(dir.Mul(t))
			add(c.Add(side), skeleton.Influence{Bone: limb + 1, Weight: 1})
			add(c.Sub(side), skeleton.Influence{Bone: limb + 1, Weight: 1})
		}
	}

	skel, err := skeleton.New(bones)
	if err != nil {
		return nil, errors.Wrapf(err, "rigio: demo %q", p.ID)
	}
	mesh := skeleton.Mesh{Name: string(p.ID), Bind: verts, Influences: infs}
	return skeleton.NewModel(string(p.ID), skel, []skeleton.Mesh{mesh}), nil
}
